package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrSecurityViolation is matched by every error Resolve returns.
var ErrSecurityViolation = errors.New("security violation")

// Names that can never be reached through the gateway, at any depth.
var blockedNames = map[string]struct{}{
	// files
	".env":         {},
	".env.local":   {},
	"secrets.json": {},
	"id_rsa":       {},
	".DS_Store":    {},
	// directories
	".git":         {},
	".vscode":      {},
	".idea":        {},
	"__pycache__":  {},
	"env":          {},
	"venv":         {},
	"node_modules": {},
}

// SecurityError describes why a path was rejected.
type SecurityError struct {
	Path   string
	Reason string
}

func (e *SecurityError) Error() string {
	return e.Reason
}

func (e *SecurityError) Is(target error) bool {
	return target == ErrSecurityViolation
}

// Gateway confines filesystem access to a single root directory.
// It is immutable after construction and safe for concurrent use.
type Gateway struct {
	root string
}

// New captures root as the sandbox root. The root is made absolute and has
// its symlinks evaluated once, here.
func New(root string) (*Gateway, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat sandbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox root %s is not a directory", resolved)
	}
	return &Gateway{root: resolved}, nil
}

// FromWorkingDir roots the gateway at the current working directory.
func FromWorkingDir() (*Gateway, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}
	return New(cwd)
}

// Root returns the canonical sandbox root.
func (g *Gateway) Root() string {
	return g.root
}

// Resolve maps raw onto an absolute path inside the sandbox. Every call
// revalidates from scratch; callers must not keep the result beyond the
// operation it was resolved for.
func (g *Gateway) Resolve(raw string) (string, error) {
	normalized := filepath.FromSlash(strings.ReplaceAll(raw, `\`, "/"))

	candidate := normalized
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.root, candidate)
	}

	target, err := canonicalize(candidate)
	if err != nil {
		return "", &SecurityError{Path: raw, Reason: fmt.Sprintf("Invalid path structure: %s", raw)}
	}

	if target == g.root {
		return target, nil
	}

	rel, err := filepath.Rel(g.root, target)
	if err != nil || escapes(rel) {
		return "", &SecurityError{
			Path:   raw,
			Reason: fmt.Sprintf("Access denied. Path '%s' is outside the project workspace.", raw),
		}
	}

	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if _, blocked := blockedNames[part]; blocked {
			return "", &SecurityError{Path: raw, Reason: fmt.Sprintf("Access denied. '%s' is restricted.", part)}
		}
		if strings.HasPrefix(part, ".") {
			return "", &SecurityError{Path: raw, Reason: fmt.Sprintf("Access denied. Hidden item '%s' is protected.", part)}
		}
	}

	return target, nil
}

// Blocked reports whether a single path segment would be rejected by Resolve.
func (g *Gateway) Blocked(name string) bool {
	if _, blocked := blockedNames[name]; blocked {
		return true
	}
	return strings.HasPrefix(name, ".")
}

func escapes(rel string) bool {
	if filepath.IsAbs(rel) {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// canonicalize cleans p and evaluates symlinks on its longest existing
// prefix. The non-existent remainder is appended unchanged, so paths that are
// about to be created still resolve.
func canonicalize(p string) (string, error) {
	p = filepath.Clean(p)

	existing := p
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		// ENOTDIR: a prefix is a regular file, so the rest cannot exist.
		if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return "", err
		}
		// A dangling symlink would be followed by a later create.
		if info, lerr := os.Lstat(existing); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("dangling symlink %s", existing)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return p, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}
