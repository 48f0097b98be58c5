// Package heredoc strips the shell and markdown wrapping that LLMs tend
// to put around patch text before it reaches the parser.
package heredoc

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const patchHeader = "*** Begin Patch"

// markerRegex matches the opening line of a heredoc invocation, e.g.
// `cat <<'EOF'`, `cat <<EOF`, `<<EOF` or `<<-"EOF"`.
var markerRegex = regexp.MustCompile(`^\s*(?:cat\s+)?<<-?\s*(['"]?)([A-Za-z_][A-Za-z0-9_]*)(['"]?)\s*$`)

// Unwrap returns the patch text inside an optional heredoc or fenced
// markdown wrapper. Input without a recognized wrapper passes through
// unchanged apart from surrounding whitespace.
func Unwrap(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	if inner, ok := unwrapHeredoc(trimmed); ok {
		return strings.TrimSpace(inner)
	}

	if strings.HasPrefix(trimmed, patchHeader) {
		return trimmed
	}

	if inner, ok := extractFencedPatch(trimmed); ok {
		// The fenced block may itself be heredoc-wrapped.
		return Unwrap(inner)
	}

	return trimmed
}

func unwrapHeredoc(input string) (string, bool) {
	lines := strings.Split(input, "\n")
	m := markerRegex.FindStringSubmatch(lines[0])
	if m == nil || m[1] != m[3] {
		return "", false
	}
	marker := m[2]

	body := lines[1:]
	for i := len(body) - 1; i >= 0; i-- {
		if strings.TrimSpace(body[i]) == marker {
			return strings.Join(body[:i], "\n"), true
		}
	}
	// No terminator. Treat the remainder as the document body.
	return strings.Join(body, "\n"), true
}

// extractFencedPatch walks the markdown AST and returns the first fenced
// code block that contains a patch document.
func extractFencedPatch(source string) (string, bool) {
	src := []byte(source)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var found string
	var ok bool
	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || ok {
			return ast.WalkContinue, nil
		}
		fenced, isFenced := node.(*ast.FencedCodeBlock)
		if !isFenced {
			return ast.WalkContinue, nil
		}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(src))
		}
		body := strings.TrimSpace(content.String())
		if strings.HasPrefix(body, patchHeader) || markerRegex.MatchString(firstLine(body)) {
			found = body
			ok = true
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return "", false
	}
	return found, ok
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
