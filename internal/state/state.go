// Package state records applied patches so the last operation can be
// undone or redone. Pre- and post-images of every touched file are
// snapshotted under .apf/trash; the engine itself never rolls back.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sokinpui/apf.go/internal/fs"
	"github.com/sokinpui/apf.go/internal/planner"
	"github.com/sokinpui/apf.go/model"
)

const (
	stateDirName  = ".apf"
	stateFileName = "state.json"
	trashDirName  = "trash"
)

// FileRecord is one file touched by a recorded patch.
type FileRecord struct {
	Path           string `json:"path"`
	Action         string `json:"action"`
	MovePath       string `json:"move_path,omitempty"`
	BeforeSnapshot string `json:"before_snapshot,omitempty"`
	AfterSnapshot  string `json:"after_snapshot,omitempty"`
	AfterHash      string `json:"after_hash,omitempty"`
}

// HistoryEntry is one applied patch.
type HistoryEntry struct {
	ID        string       `json:"id"`
	Timestamp int64        `json:"timestamp"`
	Files     []FileRecord `json:"files"`
}

// State is the persisted history with an undo cursor.
type State struct {
	History      []HistoryEntry `json:"history"`
	CurrentIndex int            `json:"current_index"`
}

// Manager handles the lifecycle of the state file.
type Manager struct {
	stateDir  string
	statePath string
	state     *State
}

// New creates and loads a state manager rooted at the working root.
func New(root string) (*Manager, error) {
	stateDir := filepath.Join(root, stateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	m := &Manager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
	}
	if err := m.load(); err != nil {
		m.state = &State{CurrentIndex: -1}
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = &State{CurrentIndex: -1}
			return nil
		}
		return err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	m.state = &st
	return nil
}

func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.statePath, data, 0644)
}

// Record snapshots a committed plan as a new history entry. Entries
// past the undo cursor are discarded, like any editor history.
func (m *Manager) Record(entries []planner.Entry) error {
	id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
	entryDir := filepath.Join(m.stateDir, trashDirName, id)

	records := make([]FileRecord, 0, len(entries))
	for i, e := range entries {
		rec := FileRecord{Path: e.Path, Action: string(e.Type), MovePath: e.MovePath}

		if e.BeforeExists {
			snap := filepath.Join(entryDir, "before", strconv.Itoa(i))
			if err := writeSnapshot(snap, e.Before); err != nil {
				return err
			}
			rec.BeforeSnapshot = snap
		}
		if e.Type != model.OpDelete {
			snap := filepath.Join(entryDir, "after", strconv.Itoa(i))
			if err := writeSnapshot(snap, e.After); err != nil {
				return err
			}
			rec.AfterSnapshot = snap
			rec.AfterHash = hashContent(e.After)
		}
		records = append(records, rec)
	}

	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}
	m.state.History = append(m.state.History, HistoryEntry{
		ID:        id,
		Timestamp: time.Now().UTC().Unix(),
		Files:     records,
	})
	m.state.CurrentIndex++
	return m.save()
}

// Undo reverts the files of the last recorded patch. Files whose
// current content no longer matches the recorded post-image are left
// alone and reported as failed.
func (m *Manager) Undo() (restored, failed []string, err error) {
	if m.state.CurrentIndex < 0 {
		return nil, nil, nil
	}
	entry := m.state.History[m.state.CurrentIndex]

	for _, rec := range entry.Files {
		if undoRecord(rec) {
			restored = append(restored, rec.Path)
		} else {
			failed = append(failed, rec.Path)
		}
	}

	m.state.CurrentIndex--
	if err := m.save(); err != nil {
		return restored, failed, err
	}
	return restored, failed, nil
}

// Redo re-applies the next recorded patch, if any.
func (m *Manager) Redo() (redone, failed []string, err error) {
	next := m.state.CurrentIndex + 1
	if next >= len(m.state.History) {
		return nil, nil, nil
	}
	entry := m.state.History[next]

	for _, rec := range entry.Files {
		if redoRecord(rec) {
			redone = append(redone, rec.Path)
		} else {
			failed = append(failed, rec.Path)
		}
	}

	m.state.CurrentIndex = next
	if err := m.save(); err != nil {
		return redone, failed, err
	}
	return redone, failed, nil
}

// HasHistory reports whether an undo target exists.
func (m *Manager) HasHistory() bool {
	return m.state.CurrentIndex >= 0
}

// HasRedo reports whether a redo target exists.
func (m *Manager) HasRedo() bool {
	return m.state.CurrentIndex+1 < len(m.state.History)
}

func undoRecord(rec FileRecord) bool {
	target := rec.Path
	if rec.MovePath != "" {
		target = rec.MovePath
	}

	if rec.AfterHash != "" && !contentMatches(target, rec.AfterHash) {
		return false
	}

	switch model.OpType(rec.Action) {
	case model.OpAdd:
		if rec.BeforeSnapshot != "" {
			return restoreSnapshot(rec.BeforeSnapshot, rec.Path)
		}
		return os.Remove(rec.Path) == nil
	case model.OpUpdate:
		return restoreSnapshot(rec.BeforeSnapshot, rec.Path)
	case model.OpDelete:
		return restoreSnapshot(rec.BeforeSnapshot, rec.Path)
	case model.OpMove:
		if !restoreSnapshot(rec.BeforeSnapshot, rec.Path) {
			return false
		}
		_ = os.Remove(rec.MovePath)
		return true
	default:
		return false
	}
}

func redoRecord(rec FileRecord) bool {
	switch model.OpType(rec.Action) {
	case model.OpAdd, model.OpUpdate:
		return restoreSnapshot(rec.AfterSnapshot, rec.Path)
	case model.OpDelete:
		return os.Remove(rec.Path) == nil
	case model.OpMove:
		if !restoreSnapshot(rec.AfterSnapshot, rec.MovePath) {
			return false
		}
		_ = os.Remove(rec.Path)
		return true
	default:
		return false
	}
}

func restoreSnapshot(snapshot, dest string) bool {
	if snapshot == "" {
		return false
	}
	data, err := os.ReadFile(snapshot)
	if err != nil {
		return false
	}
	if err := fs.EnsureParentDir(dest); err != nil {
		return false
	}
	return os.WriteFile(dest, data, 0644) == nil
}

func writeSnapshot(path, content string) error {
	if err := fs.EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func contentMatches(path, wantHash string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return hashContent(string(data)) == wantHash
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
