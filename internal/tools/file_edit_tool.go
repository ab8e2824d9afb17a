package tools

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"unicode/utf8"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

// FileEditTool replaces the content of a file, optionally relative to a
// working directory inside the sandbox.
type FileEditTool struct {
	gateway *sandbox.Gateway
}

type editResult struct {
	Status string  `json:"status"`
	Output string  `json:"output"`
	Error  *string `json:"error"`
	Path   string  `json:"path"`
}

func NewFileEditTool(deps Deps) (Tool, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("edit_file requires a sandbox gateway")
	}
	return &FileEditTool{gateway: deps.Gateway}, nil
}

func (f *FileEditTool) Name() string {
	return "edit_file"
}

func (f *FileEditTool) Schema() Schema {
	return Schema{
		Name:        f.Name(),
		Description: "Overwrites a file with the provided content. Returns a JSON string containing the operation status.",
		Params: []Param{
			{Name: "file_path", Type: TypeString, Required: true, Description: "The path to the file to edit (relative to workdir or root)."},
			{Name: "content", Type: TypeString, Required: true, Description: "The new content to write to the file."},
			{Name: "workdir", Type: TypeString, Description: "Optional relative path to the working directory."},
		},
	}
}

func (f *FileEditTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	filePath := stringArg(args, "file_path", "")
	content := stringArg(args, "content", "")
	workdir := stringArg(args, "workdir", "")
	if workdir == "" {
		workdir = "."
	}

	result := editResult{Status: "failed", Path: filePath}
	fail := func(errMsg, output string) (string, error) {
		result.Error = &errMsg
		result.Output = output
		return encodeResult(result)
	}

	// An absolute file_path overrides workdir; the gateway still confines it.
	target := filePath
	if !filepath.IsAbs(filePath) {
		target = path.Join(filepath.ToSlash(workdir), filepath.ToSlash(filePath))
	}

	resolved, err := f.gateway.Resolve(target)
	if err != nil {
		msg := fmt.Sprintf("Security check failed: %v", err)
		return fail(msg, msg)
	}

	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		msg := fmt.Sprintf("Cannot edit '%s': It is a directory.", filePath)
		return fail(msg, msg)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return fail(fmt.Sprintf("IO Error: %v", err), fmt.Sprintf("Failed to write file: %v", err))
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return fail(fmt.Sprintf("IO Error: %v", err), fmt.Sprintf("Failed to write file: %v", err))
	}

	result.Status = "success"
	result.Output = fmt.Sprintf("Successfully wrote %d characters to %s", utf8.RuneCountInString(content), filePath)
	return encodeResult(result)
}
