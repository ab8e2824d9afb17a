package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

// ListFilesTool lists the entries of a directory inside the sandbox.
type ListFilesTool struct {
	gateway *sandbox.Gateway
}

type listResult struct {
	Status string   `json:"status"`
	Files  []string `json:"files"`
	Count  int      `json:"count"`
	Output string   `json:"output"`
	Error  *string  `json:"error"`
	Path   string   `json:"path"`
}

func NewListFilesTool(deps Deps) (Tool, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("list_files requires a sandbox gateway")
	}
	return &ListFilesTool{gateway: deps.Gateway}, nil
}

func (l *ListFilesTool) Name() string {
	return "list_files"
}

func (l *ListFilesTool) Schema() Schema {
	return Schema{
		Name:        l.Name(),
		Description: "Lists files and directories in a given path. Returns a JSON string containing the list of entries.",
		Params: []Param{
			{Name: "path", Type: TypeString, Description: "Relative path to list (default is root '.')."},
			{Name: "ignore", Type: TypeArray, Items: TypeString, Description: "Optional list of glob patterns to ignore (e.g., ['*.pyc', '__pycache__'])."},
		},
	}
}

func (l *ListFilesTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	path := stringArg(args, "path", ".")
	ignore := stringListArg(args, "ignore")

	result := listResult{Status: "success", Files: []string{}, Path: path}
	fail := func(msg string) (string, error) {
		result.Status = "error"
		result.Error = &msg
		return encodeResult(result)
	}

	resolved, err := l.gateway.Resolve(path)
	if err != nil {
		return fail(fmt.Sprintf("Security Error: %v", err))
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return fail(fmt.Sprintf("Directory not found: %s", path))
	}
	if err != nil {
		return fail(fmt.Sprintf("Failed to read directory: %v", err))
	}
	if !info.IsDir() {
		return fail(fmt.Sprintf("Path is not a directory: %s. Use 'read_file' to view contents.", path))
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return fail(fmt.Sprintf("Failed to read directory: %v", err))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		if l.gateway.Blocked(name) || matchesAny(name, ignore) {
			continue
		}
		if entry.IsDir() || isDirLink(filepath.Join(resolved, name), entry) {
			result.Files = append(result.Files, name+"/")
		} else {
			result.Files = append(result.Files, name)
		}
	}

	result.Count = len(result.Files)
	if result.Count == 0 {
		result.Output = "(empty directory)"
	} else {
		result.Output = strings.Join(result.Files, "\n")
		if result.Count > 50 {
			result.Output += fmt.Sprintf("\n\n(Total: %d items)", result.Count)
		}
	}
	return encodeResult(result)
}

func isDirLink(path string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
