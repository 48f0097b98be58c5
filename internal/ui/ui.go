package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	PromptColor  = color.New(color.FgMagenta)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

func Prompt(format string, a ...interface{}) string {
	return PromptColor.Sprintf(format, a...)
}

// --- Summaries ---

func PrintApplySummary(created, modified, deleted, moved, failed []string) {
	Header("\n--- Patch Summary ---")

	if len(created) == 0 && len(modified) == 0 && len(deleted) == 0 && len(moved) == 0 && len(failed) == 0 {
		Info("No files were touched.")
		return
	}

	printGroup := func(c *color.Color, label string, files []string) {
		if len(files) == 0 {
			return
		}
		c.Fprintf(os.Stderr, "%s %d file(s):\n", label, len(files))
		for _, f := range files {
			fmt.Printf("  - %s\n", f)
		}
	}

	printGroup(SuccessColor, "Created", created)
	printGroup(SuccessColor, "Updated", modified)
	printGroup(SuccessColor, "Deleted", deleted)
	printGroup(SuccessColor, "Moved", moved)
	printGroup(ErrorColor, "Failed", failed)
}

func PrintUndoSummary(restored, failed []string) {
	Header("\n--- Undo Summary ---")
	if len(restored) > 0 {
		Success("Restored %d file(s):", len(restored))
		for _, f := range restored {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(failed) > 0 {
		Error("Failed to restore %d file(s):", len(failed))
		for _, f := range failed {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func PrintRedoSummary(redone, failed []string) {
	Header("\n--- Redo Summary ---")
	if len(redone) > 0 {
		Success("Successfully redid %d file(s):", len(redone))
		for _, f := range redone {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(failed) > 0 {
		Error("Failed to redo %d file(s):", len(failed))
		for _, f := range failed {
			fmt.Printf("  - %s\n", f)
		}
	}
}
