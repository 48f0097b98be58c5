// Package matcher locates a hunk's anchor text inside possibly-drifted
// file content. It tries an ordered list of normalization passes and
// stops at the first one that yields a match.
package matcher

import (
	"fmt"
	"strings"
)

// Pass identifies the normalization strategy that produced a match.
type Pass int

const (
	PassExact Pass = iota
	PassRightTrim
	PassTrim
	PassUnicode
)

func (p Pass) String() string {
	switch p {
	case PassExact:
		return "exact"
	case PassRightTrim:
		return "right-trim"
	case PassTrim:
		return "trim"
	case PassUnicode:
		return "unicode"
	default:
		return "unknown"
	}
}

// passes is the authoritative order: exact first, loosest last.
var passes = []struct {
	pass  Pass
	canon func(string) string
}{
	{PassExact, func(s string) string { return s }},
	{PassRightTrim, func(s string) string { return strings.TrimRight(s, " \t") }},
	{PassTrim, strings.TrimSpace},
	{PassUnicode, func(s string) string { return foldPunctuation(strings.TrimSpace(s)) }},
}

// Options control tie-breaking during the search.
type Options struct {
	// EOFAnchored searches candidate positions from the end of the file
	// backward, preferring the tail occurrence of duplicated text.
	EOFAnchored bool
	// Disambiguator, when set, is located as a standalone line first;
	// the target search is then restricted to lines at or after it.
	Disambiguator string
}

// Match is a successful location of a target block.
type Match struct {
	Start int // line offset in the file where the block begins
	Pass  Pass
}

// MismatchError means the target block was not found by any pass.
type MismatchError struct {
	Reason string
}

func (e *MismatchError) Error() string {
	return "context not found: " + e.Reason
}

// AmbiguousError means multiple equally valid positions remain and no
// disambiguator or EOF anchor breaks the tie.
type AmbiguousError struct {
	Count int
	Pass  Pass
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("context matches %d locations (%s pass); add a @@ disambiguator", e.Count, e.Pass)
}

// Find locates target as a contiguous block of fileLines.
func Find(fileLines, target []string, opts Options) (Match, error) {
	if len(target) == 0 {
		if opts.EOFAnchored {
			return Match{Start: len(fileLines), Pass: PassExact}, nil
		}
		return Match{}, &MismatchError{Reason: "hunk has no context or removed lines"}
	}

	for _, p := range passes {
		file := canonLines(fileLines, p.canon)
		block := canonLines(target, p.canon)

		from := 0
		if opts.Disambiguator != "" {
			if at := indexOfLine(file, p.canon(opts.Disambiguator)); at >= 0 {
				from = at
			}
			if at := indexOfBlock(file, block, from); at >= 0 {
				return Match{Start: at, Pass: p.pass}, nil
			}
			continue
		}

		if opts.EOFAnchored {
			if at := lastIndexOfBlock(file, block); at >= 0 {
				return Match{Start: at, Pass: p.pass}, nil
			}
			continue
		}

		candidates := allIndexesOfBlock(file, block)
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return Match{Start: candidates[0], Pass: p.pass}, nil
		default:
			// Looser passes only ever widen the candidate set.
			return Match{}, &AmbiguousError{Count: len(candidates), Pass: p.pass}
		}
	}

	return Match{}, &MismatchError{Reason: "no normalization pass located the block"}
}

func canonLines(lines []string, canon func(string) string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = canon(l)
	}
	return out
}

func indexOfLine(file []string, line string) int {
	for i := range file {
		if file[i] == line {
			return i
		}
	}
	return -1
}

func blockAt(file, block []string, start int) bool {
	if start < 0 || start+len(block) > len(file) {
		return false
	}
	for j := range block {
		if file[start+j] != block[j] {
			return false
		}
	}
	return true
}

func indexOfBlock(file, block []string, from int) int {
	for i := from; i <= len(file)-len(block); i++ {
		if blockAt(file, block, i) {
			return i
		}
	}
	return -1
}

func lastIndexOfBlock(file, block []string) int {
	for i := len(file) - len(block); i >= 0; i-- {
		if blockAt(file, block, i) {
			return i
		}
	}
	return -1
}

func allIndexesOfBlock(file, block []string) []int {
	var out []int
	for i := 0; i <= len(file)-len(block); i++ {
		if blockAt(file, block, i) {
			out = append(out, i)
		}
	}
	return out
}

// foldPunctuation maps typographic Unicode punctuation onto its ASCII
// counterpart so smart quotes and long dashes introduced by an LLM or a
// rich-text editor still match plain source text.
func foldPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '‘', '’', '‚', '‛', '′', '´':
			return '\''
		case '“', '”', '„', '‟', '″':
			return '"'
		case '‐', '‑', '‒', '–', '—', '―', '−':
			return '-'
		case ' ', ' ', ' ', ' ', ' ', ' ',
			' ', ' ', ' ', ' ', ' ', ' ', '　':
			return ' '
		case '\u200B', '\uFEFF':
			return -1
		default:
			return r
		}
	}, s)
}
