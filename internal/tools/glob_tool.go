package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

const globDisplayLimit = 200

// GlobTool matches paths under the sandbox root against a glob pattern.
// "**" spans directories.
type GlobTool struct {
	gateway *sandbox.Gateway
}

type globResult struct {
	Status  string   `json:"status"`
	Matches []string `json:"matches"`
	Count   int      `json:"count"`
	Output  string   `json:"output"`
	Error   *string  `json:"error"`
}

func NewGlobTool(deps Deps) (Tool, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("glob_tool requires a sandbox gateway")
	}
	return &GlobTool{gateway: deps.Gateway}, nil
}

func (g *GlobTool) Name() string {
	return "glob_tool"
}

func (g *GlobTool) Schema() Schema {
	return Schema{
		Name:        g.Name(),
		Description: "Fast file pattern matching using glob patterns. Returns a JSON string with the list of matches.",
		Params: []Param{
			{Name: "pattern", Type: TypeString, Required: true, Description: "The glob pattern to search for (e.g. \"src/**/*.py\")."},
			{Name: "exclude", Type: TypeString, Description: "An optional glob pattern to filter out results."},
		},
	}
}

func (g *GlobTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	pattern := stringArg(args, "pattern", "")
	exclude := stringArg(args, "exclude", "")

	result := globResult{Status: "failed", Matches: []string{}}
	fail := func(status, errMsg, output string) (string, error) {
		result.Status = status
		result.Error = &errMsg
		result.Output = output
		return encodeResult(result)
	}

	root, err := g.gateway.Resolve(".")
	if err != nil {
		msg := fmt.Sprintf("Security Error: %v", err)
		return fail("failed", msg, msg)
	}

	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if !doublestar.ValidatePattern(pattern) {
		return fail("error", "invalid glob pattern", fmt.Sprintf("Glob Error: invalid glob pattern %q", pattern))
	}

	fsys := sandboxFS{FS: os.DirFS(root), ctx: ctx, blocked: g.gateway.Blocked}
	raw, err := doublestar.Glob(fsys, pattern, doublestar.WithNoFollow())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return fail("error", err.Error(), fmt.Sprintf("Glob Error: %v", err))
	}
	sort.Strings(raw)

	for _, match := range raw {
		if err := ctx.Err(); err != nil {
			return fail("error", err.Error(), fmt.Sprintf("Glob Error: %v", err))
		}
		if exclude != "" && matchGlob(exclude, match) {
			continue
		}
		// Symlinked or protected matches are dropped silently.
		resolved, err := g.gateway.Resolve(match)
		if err != nil {
			continue
		}
		if info, err := os.Stat(resolved); err == nil && info.IsDir() {
			match += "/"
		}
		result.Matches = append(result.Matches, match)
	}

	result.Status = "success"
	result.Count = len(result.Matches)
	switch {
	case result.Count == 0:
		result.Output = "No matches found."
	case result.Count > globDisplayLimit:
		result.Output = strings.Join(result.Matches[:globDisplayLimit], "\n") +
			fmt.Sprintf("\n... (and %d more)", result.Count-globDisplayLimit)
	default:
		result.Output = strings.Join(result.Matches, "\n")
	}
	return encodeResult(result)
}

// matchGlob matches pattern against the slash-separated relative path and
// against its base name, so "*.log" filters logs at any depth.
func matchGlob(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	ok, _ := doublestar.Match(pattern, path.Base(rel))
	return ok
}

// sandboxFS hides blocked entries from directory listings so the walk never
// descends into them, and stops listing once ctx is done.
type sandboxFS struct {
	fs.FS
	ctx     context.Context
	blocked func(name string) bool
}

func (s sandboxFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(s.FS, name)
	if err != nil {
		return nil, err
	}
	kept := entries[:0]
	for _, entry := range entries {
		if !s.blocked(entry.Name()) {
			kept = append(kept, entry)
		}
	}
	return kept, nil
}
