// Package report derives per-file diffs and permission metadata from a
// committed (or about to be committed) plan.
package report

import (
	"strconv"
	"strings"

	"github.com/sokinpui/apf.go/internal/diff"
	"github.com/sokinpui/apf.go/internal/planner"
	"github.com/sokinpui/apf.go/model"
)

// Build assembles the aggregate diff and the per-file entries handed to
// the permission broker.
func Build(plan *planner.Plan) (model.Metadata, error) {
	meta := model.Metadata{Files: make([]model.FileDiffEntry, 0, len(plan.Entries))}

	var all strings.Builder
	for _, entry := range plan.Entries {
		fromLabel := "a/" + entry.RelPath
		toLabel := "b/" + entry.RelPath
		switch entry.Type {
		case model.OpAdd:
			if !entry.BeforeExists {
				fromLabel = "/dev/null"
			}
		case model.OpDelete:
			toLabel = "/dev/null"
		case model.OpMove:
			toLabel = "b/" + entry.RelMovePath
		}

		text, err := diff.Unified(fromLabel, toLabel, entry.Before, entry.After)
		if err != nil {
			return model.Metadata{}, err
		}

		file := model.FileDiffEntry{
			FilePath:     entry.Path,
			RelativePath: entry.RelPath,
			Type:         entry.Type,
			Diff:         text,
			Before:       entry.Before,
			After:        entry.After,
			Additions:    entry.Additions,
			Deletions:    entry.Deletions,
		}
		if entry.Type == model.OpMove {
			file.MovePath = entry.MovePath
		}
		meta.Files = append(meta.Files, file)

		all.WriteString(text)
		if text != "" && !strings.HasSuffix(text, "\n") {
			all.WriteString("\n")
		}
	}

	meta.Diff = all.String()
	return meta, nil
}

// Title produces the short human label for a patch result, e.g.
// "apply_patch: 2 updated, 1 added".
func Title(meta model.Metadata) string {
	counts := map[model.OpType]int{}
	for _, f := range meta.Files {
		counts[f.Type]++
	}
	var parts []string
	appendCount := func(n int, label string) {
		if n > 0 {
			parts = append(parts, strconv.Itoa(n)+" "+label)
		}
	}
	appendCount(counts[model.OpAdd], "added")
	appendCount(counts[model.OpUpdate], "updated")
	appendCount(counts[model.OpMove], "moved")
	appendCount(counts[model.OpDelete], "deleted")
	if len(parts) == 0 {
		return "apply_patch: no changes"
	}
	return "apply_patch: " + strings.Join(parts, ", ")
}
