package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/apf.go/internal/ui"
)

// Provider determines and retrieves the patch text.
type Provider struct {
	// File, when set, is read instead of stdin or the clipboard.
	File string
}

// New creates a Provider. file may be empty.
func New(file string) *Provider {
	return &Provider{File: file}
}

// GetContent retrieves patch text from the file argument, stdin (if
// piped) or the clipboard, in that order of preference.
func (p *Provider) GetContent() (string, error) {
	if p.File != "" {
		data, err := os.ReadFile(p.File)
		if err != nil {
			return "", fmt.Errorf("failed to read patch file: %w", err)
		}
		return string(data), nil
	}

	stat, _ := os.Stdin.Stat()
	isPiped := (stat.Mode() & os.ModeCharDevice) == 0

	if isPiped {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	content, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}
