// Package planner dry-runs a parsed patch document against the real
// filesystem. It either produces a complete plan covering every
// operation or fails with the first error and no side effects.
package planner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sokinpui/apf.go/internal/diff"
	"github.com/sokinpui/apf.go/internal/fs"
	"github.com/sokinpui/apf.go/internal/matcher"
	"github.com/sokinpui/apf.go/internal/parser"
	"github.com/sokinpui/apf.go/model"
)

// Entry is the fully verified mutation of a single file.
type Entry struct {
	Type        model.OpType
	Path        string // absolute target path
	RelPath     string
	MovePath    string // absolute, set for moves
	RelMovePath string
	Before      string
	After       string
	// BeforeExists distinguishes an overwriting add from a fresh one.
	BeforeExists bool
	Additions    int
	Deletions    int
	// HunkMatches records which normalization pass located each hunk.
	HunkMatches []matcher.Match
}

// Plan is the immutable in-memory description of every file mutation a
// patch will perform. It is built entirely before any write occurs.
type Plan struct {
	Entries []Entry
}

// MissingTargetError reports an update or delete aimed at a path that
// does not exist or is not a regular file.
type MissingTargetError struct {
	Path   string
	Reason string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("%s %s", e.Path, e.Reason)
}

// HunkError wraps a matcher failure with the hunk's position.
type HunkError struct {
	Path string
	Hunk int // 1-based
	Err  error
}

func (e *HunkError) Error() string {
	return fmt.Sprintf("hunk %d of %s: %v", e.Hunk, e.Path, e.Err)
}

func (e *HunkError) Unwrap() error { return e.Err }

// Build verifies every operation in doc and assembles the plan.
// Any failure aborts the whole build; the filesystem is never touched.
func Build(ctx context.Context, doc *parser.Document, resolver *fs.Resolver) (*Plan, error) {
	plan := &Plan{Entries: make([]Entry, 0, len(doc.Ops))}
	for _, op := range doc.Ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := buildEntry(op, resolver)
		if err != nil {
			return nil, fmt.Errorf("apply_patch verification failed: %w", err)
		}
		plan.Entries = append(plan.Entries, entry)
	}
	return plan, nil
}

func buildEntry(op parser.FileOp, resolver *fs.Resolver) (Entry, error) {
	abs, err := resolver.Resolve(op.Path)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Path: abs, RelPath: resolver.Rel(abs)}

	switch op.Kind {
	case parser.OpAdd:
		return buildAdd(op, entry)
	case parser.OpDelete:
		return buildDelete(entry)
	case parser.OpUpdate:
		if op.MovePath != "" {
			moveAbs, err := resolver.Resolve(op.MovePath)
			if err != nil {
				return Entry{}, err
			}
			if info, err := os.Stat(moveAbs); err == nil && info.IsDir() {
				return Entry{}, &MissingTargetError{Path: moveAbs, Reason: "is a directory, cannot overwrite"}
			}
			entry.MovePath = moveAbs
			entry.RelMovePath = resolver.Rel(moveAbs)
		}
		return buildUpdate(op, entry)
	default:
		return Entry{}, fmt.Errorf("unsupported operation for %s", op.Path)
	}
}

func buildAdd(op parser.FileOp, entry Entry) (Entry, error) {
	entry.Type = model.OpAdd
	info, err := os.Stat(entry.Path)
	switch {
	case err == nil && info.IsDir():
		return Entry{}, &MissingTargetError{Path: entry.Path, Reason: "is a directory, cannot overwrite"}
	case err == nil:
		// Overwrite is permitted; keep the pre-image for the diff.
		raw, err := os.ReadFile(entry.Path)
		if err != nil {
			return Entry{}, err
		}
		entry.Before = string(raw)
		entry.BeforeExists = true
	case !os.IsNotExist(err):
		return Entry{}, err
	}
	if len(op.Content) > 0 {
		entry.After = strings.Join(op.Content, "\n") + "\n"
	}
	entry.Additions, entry.Deletions = diff.Stats(entry.Before, entry.After)
	return entry, nil
}

func buildDelete(entry Entry) (Entry, error) {
	entry.Type = model.OpDelete
	before, err := readTarget(entry.Path)
	if err != nil {
		return Entry{}, err
	}
	entry.Before = before
	entry.BeforeExists = true
	entry.Additions, entry.Deletions = diff.Stats(entry.Before, "")
	return entry, nil
}

func buildUpdate(op parser.FileOp, entry Entry) (Entry, error) {
	entry.Type = model.OpUpdate
	if entry.MovePath != "" {
		entry.Type = model.OpMove
	}

	before, err := readTarget(entry.Path)
	if err != nil {
		return Entry{}, err
	}
	entry.Before = before
	entry.BeforeExists = true

	hadNewline := strings.HasSuffix(before, "\n")
	lines := strings.Split(before, "\n")
	if hadNewline {
		lines = lines[:len(lines)-1]
	}

	tailTouched := false
	for i, hunk := range op.Hunks {
		target := hunk.TargetLines()
		m, err := matcher.Find(lines, target, matcher.Options{
			EOFAnchored:   hunk.EOFAnchored,
			Disambiguator: hunk.Disambiguator,
		})
		if err != nil {
			return Entry{}, &HunkError{Path: entry.RelPath, Hunk: i + 1, Err: err}
		}
		entry.HunkMatches = append(entry.HunkMatches, m)

		end := m.Start + len(target)
		replacement := hunk.ReplacementLines()
		// A newline is only restored when new lines land at the tail; a
		// pure deletion there keeps the file's missing final newline.
		if end >= len(lines) && hunk.InsertsLines() {
			tailTouched = true
		}
		next := make([]string, 0, len(lines)-len(target)+len(replacement))
		next = append(next, lines[:m.Start]...)
		next = append(next, replacement...)
		next = append(next, lines[end:]...)
		lines = next
	}

	after := strings.Join(lines, "\n")
	if after != "" && (hadNewline || tailTouched) && !strings.HasSuffix(after, "\n") {
		after += "\n"
	}
	entry.After = after
	entry.Additions, entry.Deletions = diff.Stats(entry.Before, entry.After)
	return entry, nil
}

func readTarget(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &MissingTargetError{Path: path, Reason: "does not exist"}
		}
		return "", err
	}
	if info.IsDir() {
		return "", &MissingTargetError{Path: path, Reason: "is a directory, expected a file"}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
