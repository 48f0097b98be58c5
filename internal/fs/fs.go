package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps patch-relative paths onto a single working root.
// Resolved paths are confined to the root; a path that escapes it is
// an error rather than a silent write elsewhere.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver anchored at root. An empty root means
// the current working directory.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid working root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("working root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working root %q is not a directory", root)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute working root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve turns a patch path into an absolute path under the root.
func (r *Resolver) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty file path")
	}
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.root, target)
	}
	cleaned := filepath.Clean(target)
	if cleaned != r.root && !strings.HasPrefix(cleaned, r.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes working root", path)
	}
	return cleaned, nil
}

// Rel returns path relative to the root, falling back to the input.
func (r *Resolver) Rel(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return rel
}

// EnsureParentDir creates the parent directory of path if needed.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
