package report

import (
	"strings"
	"testing"

	"github.com/sokinpui/apf.go/internal/planner"
	"github.com/sokinpui/apf.go/model"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		types []model.OpType
		want  string
	}{
		{"empty", nil, "apply_patch: no changes"},
		{"single add", []model.OpType{model.OpAdd}, "apply_patch: 1 added"},
		{
			"mixed",
			[]model.OpType{model.OpUpdate, model.OpAdd, model.OpUpdate, model.OpMove},
			"apply_patch: 1 added, 2 updated, 1 moved",
		},
		{"delete only", []model.OpType{model.OpDelete}, "apply_patch: 1 deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := model.Metadata{}
			for _, typ := range tt.types {
				meta.Files = append(meta.Files, model.FileDiffEntry{Type: typ})
			}
			if got := Title(meta); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildLabels(t *testing.T) {
	plan := &planner.Plan{Entries: []planner.Entry{
		{Type: model.OpAdd, RelPath: "new.txt", After: "x\n"},
		{Type: model.OpDelete, RelPath: "old.txt", Before: "y\n", BeforeExists: true},
		{Type: model.OpMove, RelPath: "src.txt", RelMovePath: "dst.txt", Before: "a\n", After: "b\n", BeforeExists: true},
	}}

	meta, err := Build(plan)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	add := meta.Files[0].Diff
	if !strings.Contains(add, "--- /dev/null") || !strings.Contains(add, "+++ b/new.txt") {
		t.Errorf("add labels wrong:\n%s", add)
	}
	del := meta.Files[1].Diff
	if !strings.Contains(del, "--- a/old.txt") || !strings.Contains(del, "+++ /dev/null") {
		t.Errorf("delete labels wrong:\n%s", del)
	}
	move := meta.Files[2].Diff
	if !strings.Contains(move, "--- a/src.txt") || !strings.Contains(move, "+++ b/dst.txt") {
		t.Errorf("move labels wrong:\n%s", move)
	}

	for _, f := range meta.Files {
		if !strings.Contains(meta.Diff, f.Diff) {
			t.Error("aggregate diff missing a per-file diff")
		}
	}
}
