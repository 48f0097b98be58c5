package model

// OpType classifies a planned file operation.
type OpType string

const (
	OpAdd    OpType = "add"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
	OpMove   OpType = "move"
)

// FileDiffEntry describes the change applied (or about to be applied) to one file.
type FileDiffEntry struct {
	FilePath     string `json:"filePath"`
	RelativePath string `json:"relativePath"`
	Type         OpType `json:"type"`
	Diff         string `json:"diff"`
	Before       string `json:"before,omitempty"`
	After        string `json:"after,omitempty"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	MovePath     string `json:"movePath,omitempty"`
}

// Metadata is the aggregate diff information handed to the permission broker.
type Metadata struct {
	Diff  string          `json:"diff"`
	Files []FileDiffEntry `json:"files"`
}

// Summary holds the results of an operation for display.
type Summary struct {
	Created  []string
	Modified []string
	Deleted  []string
	Moved    []string
	Failed   []string
	Message  string
	Diff     string
}

// Empty reports whether the summary carries no file results.
func (s Summary) Empty() bool {
	return len(s.Created) == 0 && len(s.Modified) == 0 &&
		len(s.Deleted) == 0 && len(s.Moved) == 0 && len(s.Failed) == 0
}
