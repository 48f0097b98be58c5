// Package parser turns codex-style patch text into an ordered document
// of file operations.
package parser

import (
	"fmt"
	"strings"
)

const (
	beginMarker  = "*** Begin Patch"
	endMarker    = "*** End Patch"
	addPrefix    = "*** Add File: "
	deletePrefix = "*** Delete File: "
	updatePrefix = "*** Update File: "
	movePrefix   = "*** Move to: "
	eofMarker    = "*** End of File"
	hunkPrefix   = "@@"
)

// LineKind tags a single change line within a hunk.
type LineKind int

const (
	Context LineKind = iota
	Remove
	Add
)

// ChangeLine is one line of a hunk body, in input order.
type ChangeLine struct {
	Kind LineKind
	Text string
}

// Hunk is one @@-delimited block of an update operation.
type Hunk struct {
	Disambiguator string
	Lines         []ChangeLine
	EOFAnchored   bool
}

// TargetLines returns the lines the hunk expects to find in the file,
// i.e. context and removed lines in order.
func (h Hunk) TargetLines() []string {
	var out []string
	for _, l := range h.Lines {
		if l.Kind == Context || l.Kind == Remove {
			out = append(out, l.Text)
		}
	}
	return out
}

// ReplacementLines returns the lines that replace the matched block,
// i.e. context and added lines in order.
func (h Hunk) ReplacementLines() []string {
	var out []string
	for _, l := range h.Lines {
		if l.Kind == Context || l.Kind == Add {
			out = append(out, l.Text)
		}
	}
	return out
}

// InsertsLines reports whether the hunk introduces any new lines.
func (h Hunk) InsertsLines() bool {
	for _, l := range h.Lines {
		if l.Kind == Add {
			return true
		}
	}
	return false
}

// OpKind tags a file operation.
type OpKind int

const (
	OpAdd OpKind = iota
	OpDelete
	OpUpdate
)

// FileOp is a single parsed file directive.
type FileOp struct {
	Kind     OpKind
	Path     string
	Content  []string // added lines for OpAdd
	Hunks    []Hunk   // for OpUpdate
	MovePath string   // optional, OpUpdate only
}

// Document is one parsed patch: an ordered list of file operations.
type Document struct {
	Ops []FileOp
}

// MalformedError reports a grammar violation at a 1-based patch line.
type MalformedError struct {
	Line   int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed patch at line %d: %s", e.Line, e.Reason)
}

// EmptyError reports a well-formed wrapper holding no file directives.
type EmptyError struct{}

func (e *EmptyError) Error() string {
	return "empty patch: no file operations between markers"
}

// Parse tokenizes unwrapped patch text into a Document.
func Parse(text string) (*Document, error) {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != beginMarker {
		return nil, &MalformedError{Line: 1, Reason: fmt.Sprintf("expected %q", beginMarker)}
	}
	if strings.TrimRight(lines[len(lines)-1], " \t") != endMarker {
		return nil, &MalformedError{Line: len(lines), Reason: fmt.Sprintf("expected %q as final line", endMarker)}
	}

	p := &docParser{lines: lines[1 : len(lines)-1], offset: 2}
	doc, err := p.parse()
	if err != nil {
		return nil, err
	}
	if len(doc.Ops) == 0 {
		return nil, &EmptyError{}
	}
	if err := rejectDuplicateTargets(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type docParser struct {
	lines  []string
	offset int // 1-based patch line number of lines[0]
	pos    int
}

func (p *docParser) parse() (*Document, error) {
	doc := &Document{}
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		switch {
		case strings.HasPrefix(line, addPrefix):
			op, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			doc.Ops = append(doc.Ops, op)
		case strings.HasPrefix(line, deletePrefix):
			path := strings.TrimSpace(strings.TrimPrefix(line, deletePrefix))
			if path == "" {
				return nil, p.errorf("delete directive is missing a path")
			}
			doc.Ops = append(doc.Ops, FileOp{Kind: OpDelete, Path: path})
			p.pos++
		case strings.HasPrefix(line, updatePrefix):
			op, err := p.parseUpdate()
			if err != nil {
				return nil, err
			}
			doc.Ops = append(doc.Ops, op)
		case strings.TrimSpace(line) == "":
			p.pos++
		default:
			return nil, p.errorf("unknown directive %q", line)
		}
	}
	return doc, nil
}

func (p *docParser) parseAdd() (FileOp, error) {
	path := strings.TrimSpace(strings.TrimPrefix(p.lines[p.pos], addPrefix))
	if path == "" {
		return FileOp{}, p.errorf("add directive is missing a path")
	}
	p.pos++

	op := FileOp{Kind: OpAdd, Path: path, Content: []string{}}
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.HasPrefix(line, "***") {
			break
		}
		if !strings.HasPrefix(line, "+") {
			return FileOp{}, p.errorf("added file line must start with '+', got %q", line)
		}
		op.Content = append(op.Content, line[1:])
		p.pos++
	}
	return op, nil
}

func (p *docParser) parseUpdate() (FileOp, error) {
	path := strings.TrimSpace(strings.TrimPrefix(p.lines[p.pos], updatePrefix))
	if path == "" {
		return FileOp{}, p.errorf("update directive is missing a path")
	}
	p.pos++

	op := FileOp{Kind: OpUpdate, Path: path}
	if p.pos < len(p.lines) && strings.HasPrefix(p.lines[p.pos], movePrefix) {
		op.MovePath = strings.TrimSpace(strings.TrimPrefix(p.lines[p.pos], movePrefix))
		if op.MovePath == "" {
			return FileOp{}, p.errorf("move directive is missing a path")
		}
		p.pos++
	}

	var cur *Hunk
	closeHunk := func() {
		if cur != nil && len(cur.Lines) > 0 {
			op.Hunks = append(op.Hunks, *cur)
		}
		cur = nil
	}

loop:
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		switch {
		case strings.HasPrefix(line, addPrefix),
			strings.HasPrefix(line, deletePrefix),
			strings.HasPrefix(line, updatePrefix):
			break loop
		case strings.TrimRight(line, " \t") == eofMarker:
			if cur == nil {
				return FileOp{}, p.errorf("%q outside a hunk", eofMarker)
			}
			cur.EOFAnchored = true
			closeHunk()
			p.pos++
		case strings.HasPrefix(line, hunkPrefix):
			closeHunk()
			cur = &Hunk{Disambiguator: strings.TrimSpace(line[len(hunkPrefix):])}
			p.pos++
		case strings.HasPrefix(line, "***"):
			return FileOp{}, p.errorf("unknown directive %q", line)
		default:
			kind, text, err := p.parseChangeLine(line)
			if err != nil {
				return FileOp{}, err
			}
			if cur == nil {
				// Change lines before the first @@ form an implicit hunk.
				cur = &Hunk{}
			}
			cur.Lines = append(cur.Lines, ChangeLine{Kind: kind, Text: text})
			p.pos++
		}
	}
	closeHunk()

	if len(op.Hunks) == 0 {
		return FileOp{}, p.errorf("update for %s has no hunks", path)
	}
	return op, nil
}

func (p *docParser) parseChangeLine(line string) (LineKind, string, error) {
	if line == "" {
		// Blank lines inside a hunk stand for empty context lines.
		return Context, "", nil
	}
	switch line[0] {
	case ' ':
		return Context, line[1:], nil
	case '-':
		return Remove, line[1:], nil
	case '+':
		return Add, line[1:], nil
	default:
		return 0, "", p.errorf("hunk line must start with ' ', '-' or '+', got %q", line)
	}
}

func (p *docParser) errorf(format string, a ...interface{}) *MalformedError {
	return &MalformedError{Line: p.offset + p.pos, Reason: fmt.Sprintf(format, a...)}
}

// rejectDuplicateTargets refuses documents that touch the same path twice.
// The grammar allows it, but applying both is order-dependent and almost
// certainly not what the author meant.
func rejectDuplicateTargets(doc *Document) error {
	seen := make(map[string]struct{}, len(doc.Ops))
	claim := func(path string) error {
		if _, dup := seen[path]; dup {
			return &MalformedError{Line: 1, Reason: fmt.Sprintf("path %s is targeted by more than one operation", path)}
		}
		seen[path] = struct{}{}
		return nil
	}
	for _, op := range doc.Ops {
		if err := claim(op.Path); err != nil {
			return err
		}
		if op.MovePath != "" {
			if err := claim(op.MovePath); err != nil {
				return err
			}
		}
	}
	return nil
}
