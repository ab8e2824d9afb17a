package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

// FileCreationTool writes a whole file, creating parent directories and
// overwriting any existing content.
type FileCreationTool struct {
	gateway *sandbox.Gateway
}

type writeResult struct {
	Status       string  `json:"status"`
	Output       string  `json:"output"`
	Error        *string `json:"error"`
	FilePath     string  `json:"file_path"`
	BytesWritten int     `json:"bytes_written"`
	LinesWritten int     `json:"lines_written"`
}

func NewFileCreationTool(deps Deps) (Tool, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("write_file requires a sandbox gateway")
	}
	return &FileCreationTool{gateway: deps.Gateway}, nil
}

func (f *FileCreationTool) Name() string {
	return "write_file"
}

func (f *FileCreationTool) Schema() Schema {
	return Schema{
		Name: f.Name(),
		Description: "Writes content to a file. Returns a JSON string with write statistics. " +
			"This tool will OVERWRITE existing files. Parent directories are created automatically.",
		Params: []Param{
			{Name: "file_path", Type: TypeString, Required: true, Description: "Relative path to the file (e.g., 'src/utils.py')."},
			{Name: "content", Type: TypeString, Required: true, Description: "The full text content to write."},
		},
	}
}

func (f *FileCreationTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	filePath := stringArg(args, "file_path", "")
	content := stringArg(args, "content", "")

	result := writeResult{Status: "failed", FilePath: filePath}
	fail := func(msg string) (string, error) {
		result.Error = &msg
		result.Output = msg
		return encodeResult(result)
	}

	resolved, err := f.gateway.Resolve(filePath)
	if err != nil {
		return fail(fmt.Sprintf("Security Error: %v", err))
	}

	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return fail(fmt.Sprintf("Cannot write to '%s': It is a directory.", filePath))
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(fmt.Sprintf("Failed to create directory '%s': %v", dir, err))
	}

	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		msg := err.Error()
		result.Error = &msg
		result.Output = fmt.Sprintf("Error writing file: %v", err)
		return encodeResult(result)
	}

	result.Status = "success"
	result.BytesWritten = len(content)
	result.LinesWritten = strings.Count(content, "\n") + 1
	result.Output = fmt.Sprintf("Success: Wrote %d bytes (%d lines) to '%s'.", result.BytesWritten, result.LinesWritten, filePath)
	return encodeResult(result)
}
