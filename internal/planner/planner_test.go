package planner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sokinpui/apf.go/internal/fs"
	"github.com/sokinpui/apf.go/internal/matcher"
	"github.com/sokinpui/apf.go/internal/parser"
	"github.com/sokinpui/apf.go/model"
)

func setup(t *testing.T, files map[string]string) (*fs.Resolver, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	resolver, err := fs.NewResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	return resolver, root
}

func build(t *testing.T, resolver *fs.Resolver, patch string) (*Plan, error) {
	t.Helper()
	doc, err := parser.Parse(patch)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return Build(context.Background(), doc, resolver)
}

func TestBuildAdd(t *testing.T) {
	resolver, _ := setup(t, nil)
	plan, err := build(t, resolver, "*** Begin Patch\n*** Add File: new.txt\n+hello\n+world\n*** End Patch")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := plan.Entries[0]
	if entry.Type != model.OpAdd {
		t.Errorf("Type = %q, want add", entry.Type)
	}
	if entry.After != "hello\nworld\n" {
		t.Errorf("After = %q", entry.After)
	}
	if entry.BeforeExists {
		t.Error("BeforeExists should be false for a fresh add")
	}
	if entry.Additions != 2 || entry.Deletions != 0 {
		t.Errorf("stats = +%d -%d, want +2 -0", entry.Additions, entry.Deletions)
	}
}

func TestBuildAddOverwrite(t *testing.T) {
	resolver, _ := setup(t, map[string]string{"f.txt": "old\n"})
	plan, err := build(t, resolver, "*** Begin Patch\n*** Add File: f.txt\n+new\n*** End Patch")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := plan.Entries[0]
	if !entry.BeforeExists || entry.Before != "old\n" {
		t.Errorf("pre-image not captured: exists=%v before=%q", entry.BeforeExists, entry.Before)
	}
}

func TestBuildAddOverDirectory(t *testing.T) {
	resolver, root := setup(t, nil)
	if err := os.Mkdir(filepath.Join(root, "dir"), 0755); err != nil {
		t.Fatal(err)
	}
	_, err := build(t, resolver, "*** Begin Patch\n*** Add File: dir\n+x\n*** End Patch")
	var missing *MissingTargetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingTargetError, got %v", err)
	}
}

func TestBuildDeleteMissing(t *testing.T) {
	resolver, _ := setup(t, nil)
	_, err := build(t, resolver, "*** Begin Patch\n*** Delete File: ghost.txt\n*** End Patch")
	var missing *MissingTargetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingTargetError, got %v", err)
	}
	if !strings.Contains(err.Error(), "apply_patch verification failed") {
		t.Errorf("error not wrapped with verification prefix: %v", err)
	}
}

func TestBuildUpdate(t *testing.T) {
	resolver, _ := setup(t, map[string]string{"f.txt": "one\ntwo\nthree\n"})
	patch := "*** Begin Patch\n*** Update File: f.txt\n one\n-two\n+TWO\n three\n*** End Patch"
	plan, err := build(t, resolver, patch)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := plan.Entries[0]
	if entry.Type != model.OpUpdate {
		t.Errorf("Type = %q, want update", entry.Type)
	}
	if entry.After != "one\nTWO\nthree\n" {
		t.Errorf("After = %q", entry.After)
	}
	if entry.Additions != 1 || entry.Deletions != 1 {
		t.Errorf("stats = +%d -%d, want +1 -1", entry.Additions, entry.Deletions)
	}
	if len(entry.HunkMatches) != 1 || entry.HunkMatches[0].Pass != matcher.PassExact {
		t.Errorf("HunkMatches = %+v, want one exact match", entry.HunkMatches)
	}
}

func TestBuildUpdateTrimPassRecorded(t *testing.T) {
	resolver, _ := setup(t, map[string]string{"f.txt": "line  \n"})
	patch := "*** Begin Patch\n*** Update File: f.txt\n-line\n+other\n*** End Patch"
	plan, err := build(t, resolver, patch)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := plan.Entries[0].HunkMatches[0].Pass; got != matcher.PassRightTrim {
		t.Errorf("Pass = %v, want right-trim", got)
	}
}

func TestBuildUpdateNoTrailingNewline(t *testing.T) {
	t.Run("tail untouched keeps missing newline", func(t *testing.T) {
		resolver, _ := setup(t, map[string]string{"f.txt": "a\nb\nc"})
		plan, err := build(t, resolver, "*** Begin Patch\n*** Update File: f.txt\n-a\n+A\n b\n*** End Patch")
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if got := plan.Entries[0].After; got != "A\nb\nc" {
			t.Errorf("After = %q, want no trailing newline", got)
		}
	})

	t.Run("pure deletion at tail keeps missing newline", func(t *testing.T) {
		resolver, _ := setup(t, map[string]string{"f.txt": "a\nb"})
		plan, err := build(t, resolver, "*** Begin Patch\n*** Update File: f.txt\n a\n-b\n*** End Patch")
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if got := plan.Entries[0].After; got != "a" {
			t.Errorf("After = %q, want %q", got, "a")
		}
	})

	t.Run("tail touched gains newline", func(t *testing.T) {
		resolver, _ := setup(t, map[string]string{"f.txt": "a\nb"})
		plan, err := build(t, resolver, "*** Begin Patch\n*** Update File: f.txt\n a\n-b\n+B\n*** End Patch")
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if got := plan.Entries[0].After; got != "a\nB\n" {
			t.Errorf("After = %q, want trailing newline restored", got)
		}
	})
}

func TestBuildUpdateEmptyResult(t *testing.T) {
	resolver, _ := setup(t, map[string]string{"f.txt": "only\n"})
	plan, err := build(t, resolver, "*** Begin Patch\n*** Update File: f.txt\n-only\n*** End Patch")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := plan.Entries[0].After; got != "" {
		t.Errorf("After = %q, want empty", got)
	}
}

func TestBuildMove(t *testing.T) {
	resolver, root := setup(t, map[string]string{"old.txt": "body\n"})
	patch := "*** Begin Patch\n*** Update File: old.txt\n*** Move to: sub/new.txt\n-body\n+BODY\n*** End Patch"
	plan, err := build(t, resolver, patch)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := plan.Entries[0]
	if entry.Type != model.OpMove {
		t.Errorf("Type = %q, want move", entry.Type)
	}
	if entry.MovePath != filepath.Join(root, "sub", "new.txt") {
		t.Errorf("MovePath = %q", entry.MovePath)
	}
	if entry.After != "BODY\n" {
		t.Errorf("After = %q", entry.After)
	}
}

func TestBuildMoveOntoDirectory(t *testing.T) {
	resolver, root := setup(t, map[string]string{"old.txt": "body\n"})
	if err := os.Mkdir(filepath.Join(root, "dest"), 0755); err != nil {
		t.Fatal(err)
	}
	patch := "*** Begin Patch\n*** Update File: old.txt\n*** Move to: dest\n-body\n+BODY\n*** End Patch"
	_, err := build(t, resolver, patch)
	var missing *MissingTargetError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingTargetError for a directory destination, got %v", err)
	}
}

func TestBuildHunkError(t *testing.T) {
	resolver, _ := setup(t, map[string]string{"f.txt": "alpha\n"})
	patch := "*** Begin Patch\n*** Update File: f.txt\n-missing\n+x\n*** End Patch"
	_, err := build(t, resolver, patch)
	var hunkErr *HunkError
	if !errors.As(err, &hunkErr) {
		t.Fatalf("expected HunkError, got %v", err)
	}
	if hunkErr.Hunk != 1 {
		t.Errorf("Hunk = %d, want 1", hunkErr.Hunk)
	}
	var mismatch *matcher.MismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("HunkError should wrap the matcher failure, got %v", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	resolver, _ := setup(t, nil)
	doc, err := parser.Parse("*** Begin Patch\n*** Add File: f.txt\n+x\n*** End Patch")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, doc, resolver); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
