package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	Directory   string
	PatchFile   string
	OutputDiff  bool
	Yes         bool
	Undo        bool
	Redo        bool
	NoAnimation bool
	Extensions  []string
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	// Define flags
	pflag.StringVarP(&cfg.Directory, "directory", "C", "", "Working root against which patch paths are resolved (default: current directory).")
	pflag.StringVarP(&cfg.PatchFile, "file", "f", "", "Read the patch from a file instead of stdin or the clipboard.")
	pflag.BoolVarP(&cfg.OutputDiff, "output-diff", "o", false, "Verify the patch and print the resulting diff without applying it.")
	pflag.BoolVarP(&cfg.Yes, "yes", "y", false, "Apply without the confirmation prompt.")
	pflag.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the loading spinner.")
	pflag.StringSliceVarP(&cfg.Extensions, "extension", "e", []string{}, "Only apply operations targeting these extensions (e.g., 'go', 'py').")

	// Mutually exclusive history group
	pflag.BoolVarP(&cfg.Undo, "undo", "u", false, "Undo the last applied patch.")
	pflag.BoolVarP(&cfg.Redo, "redo", "r", false, "Redo the last undone patch.")

	pflag.Usage = func() {
		fmt.Println("Usage: apf [flags]")
		fmt.Println("\nApply a '*** Begin Patch' document from stdin (pipe), the clipboard, or a file.")
		fmt.Println("\nExample: pbpaste | apf -e go")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	// Validate mutually exclusive flags
	if cfg.Undo && cfg.Redo {
		return nil, fmt.Errorf("error: --undo and --redo are mutually exclusive")
	}

	// Normalize extensions
	for i, ext := range cfg.Extensions {
		if len(ext) > 0 && ext[0] != '.' {
			cfg.Extensions[i] = "." + ext
		}
	}

	return cfg, nil
}
