// Package applier commits a verified plan to disk. It runs only after
// planning succeeds and performs no checks of its own; a failure here
// means the environment changed under us and the filesystem may be left
// partially patched.
package applier

import (
	"fmt"
	"os"

	"github.com/sokinpui/apf.go/internal/fs"
	"github.com/sokinpui/apf.go/internal/planner"
	"github.com/sokinpui/apf.go/model"
)

// Error reports a write, rename or delete that failed after successful
// verification. Earlier entries of the plan may already be on disk.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("apply_patch apply failed for %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Commit writes every entry of the plan in order.
func Commit(plan *planner.Plan) error {
	for i := range plan.Entries {
		entry := &plan.Entries[i]
		if err := commitEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func commitEntry(entry *planner.Entry) error {
	switch entry.Type {
	case model.OpAdd, model.OpUpdate:
		if err := writeFile(entry.Path, entry.After); err != nil {
			return err
		}
	case model.OpMove:
		if err := writeFile(entry.MovePath, entry.After); err != nil {
			return err
		}
		if err := os.Remove(entry.Path); err != nil {
			return &Error{Path: entry.Path, Err: err}
		}
	case model.OpDelete:
		if err := os.Remove(entry.Path); err != nil {
			return &Error{Path: entry.Path, Err: err}
		}
	default:
		return &Error{Path: entry.Path, Err: fmt.Errorf("unknown plan entry type %q", entry.Type)}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := fs.EnsureParentDir(path); err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}
