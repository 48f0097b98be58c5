// Package diff computes unified diffs and line change counts between
// two versions of a file's content.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Unified renders a unified diff between before and after with three
// context lines. fromPath and toPath label the header; they differ only
// for moves.
func Unified(fromPath, toPath, before, after string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        splitKeepEnds(before),
		B:        splitKeepEnds(after),
		FromFile: fromPath,
		ToFile:   toPath,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// Stats returns the number of added and deleted lines between before
// and after, computed from a line-level diff.
func Stats(before, after string) (additions, deletions int) {
	if before == after {
		return 0, 0
	}
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += countLines(d.Text)
		}
	}
	return additions, deletions
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func splitKeepEnds(content string) []string {
	if content == "" {
		return nil
	}
	return difflib.SplitLines(content)
}
