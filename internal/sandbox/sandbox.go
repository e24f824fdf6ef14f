// Package sandbox confines caller-supplied paths to a single root directory.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AccessError reports a path that resolved outside the sandbox root.
// It carries the path as the caller supplied it, never the resolved form.
type AccessError struct {
	Path string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access denied: %s is outside the allowed directory", e.Path)
}

// Root is the sandbox boundary. Every filesystem operation must go through
// Resolve before touching the path.
type Root struct {
	path string
}

// New creates a Root from dir. The directory must exist; its canonical
// (symlink-resolved) form becomes the boundary all paths are checked against.
func New(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolving sandbox root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Root{}, fmt.Errorf("resolving sandbox root %s: %w", dir, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return Root{}, fmt.Errorf("resolving sandbox root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("sandbox root %s is not a directory", dir)
	}
	return Root{path: resolved}, nil
}

// Path returns the canonical root directory.
func (r Root) Path() string {
	return r.path
}

// Resolve validates raw against the root and returns its canonical absolute
// form. Relative paths are joined to the root; absolute paths stand on their
// own. Symlinks are resolved before the containment check, anchoring at the
// deepest existing ancestor when the target does not exist yet. Any path whose
// canonical form falls outside the root yields an *AccessError. A path that
// cannot be resolved at all (broken intermediate component) is also rejected,
// not treated as a crash.
func (r Root) Resolve(raw string) (string, error) {
	if raw == "" {
		return "", &AccessError{Path: raw}
	}

	candidate := raw
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(r.path, candidate)
	}
	// Join/Clean already removed "." and ".." lexically, so no dot-dot
	// segment survives to the filesystem walk below.
	candidate = filepath.Clean(candidate)

	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", &AccessError{Path: raw}
	}

	if !contains(r.path, resolved) {
		return "", &AccessError{Path: raw}
	}
	return resolved, nil
}

// resolveExisting canonicalizes path even when it does not exist: the longest
// existing prefix is symlink-resolved and the remaining suffix re-appended.
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	suffix := ""
	dir := path
	for {
		parent, base := filepath.Split(dir)
		parent = strings.TrimSuffix(parent, string(filepath.Separator))
		if parent == "" {
			parent = string(filepath.Separator)
		}
		if base == "" {
			return dir, nil
		}
		suffix = filepath.Join(base, suffix)

		resolved, err := filepath.EvalSymlinks(parent)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		if parent == string(filepath.Separator) {
			return filepath.Join(parent, suffix), nil
		}
		dir = parent
	}
}

// contains reports whether path equals root or sits beneath it. The check is
// component-wise so /data-evil does not match root /data.
func contains(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
