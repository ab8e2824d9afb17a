package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

const (
	defaultReadLimit = 2000
	maxLineLength    = 2000
	maxReadBytes     = 50 * 1024
)

var binaryExts = map[string]bool{
	".zip": true, ".tar": true, ".gz": true, ".exe": true, ".dll": true, ".so": true,
	".class": true, ".jar": true, ".war": true, ".7z": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true, ".odt": true, ".ods": true,
	".odp": true, ".bin": true, ".dat": true, ".obj": true, ".o": true, ".a": true,
	".lib": true, ".wasm": true, ".pyc": true, ".pyo": true,
}

// FileReadTool reads a window of lines from a text file.
type FileReadTool struct {
	gateway *sandbox.Gateway
}

type readResult struct {
	Status      string  `json:"status"`
	Output      string  `json:"output"`
	RawContent  string  `json:"raw_content"`
	FilePath    string  `json:"file_path"`
	TotalLines  int     `json:"total_lines"`
	ReadLines   int     `json:"read_lines"`
	IsTruncated bool    `json:"is_truncated"`
	Error       *string `json:"error"`
}

func NewFileReadTool(deps Deps) (Tool, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("read_file requires a sandbox gateway")
	}
	return &FileReadTool{gateway: deps.Gateway}, nil
}

func (f *FileReadTool) Name() string {
	return "read_file"
}

func (f *FileReadTool) Schema() Schema {
	return Schema{
		Name:        f.Name(),
		Description: "Reads a file from the local filesystem. Returns structured JSON.",
		Params: []Param{
			{Name: "file_path", Type: TypeString, Required: true, Description: "Relative path to the file."},
			{Name: "offset", Type: TypeInteger, Description: "Line number to start reading from (0-indexed)."},
			{Name: "limit", Type: TypeInteger, Description: "Max number of lines to read."},
		},
	}
}

func (f *FileReadTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	filePath := stringArg(args, "file_path", "")
	offset := max(intArg(args, "offset", 0), 0)
	limit := intArg(args, "limit", defaultReadLimit)

	result := readResult{Status: "failed", FilePath: filePath}
	fail := func(msg string) (string, error) {
		result.Error = &msg
		result.Output = msg
		return encodeResult(result)
	}

	resolved, err := f.gateway.Resolve(filePath)
	if err != nil {
		return fail(fmt.Sprintf("Security Error: %v", err))
	}

	info, err := os.Stat(resolved)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		msg := fmt.Sprintf("File not found: %s", filePath)
		if suggestions := f.suggest(resolved); len(suggestions) > 0 {
			msg += fmt.Sprintf("\nDid you mean: %s?", strings.Join(suggestions, ", "))
		}
		return fail(msg)
	}
	if err != nil {
		return fail(fmt.Sprintf("System Error reading file: %v", err))
	}
	if info.IsDir() {
		return fail(fmt.Sprintf("Path is a directory: %s. Use 'list_files' to view contents.", filePath))
	}

	mimeType := mime.TypeByExtension(filepath.Ext(resolved))
	if isBinaryFile(resolved) || strings.HasPrefix(mimeType, "image/") {
		if mimeType == "" {
			mimeType = "unknown"
		}
		return fail(fmt.Sprintf("Binary file detected (%s). Cannot read as text.", mimeType))
	}

	lines, err := readLines(resolved)
	if err != nil {
		result.Status = "error"
		return fail(fmt.Sprintf("System Error reading file: %v", err))
	}
	result.TotalLines = len(lines)

	start := min(offset, len(lines))
	end := len(lines)
	if limit >= 0 {
		end = min(len(lines), start+limit)
	}

	var formatted, raw []string
	bytesCount := 0
	for i, line := range lines[start:end] {
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "...[line truncated]"
		}
		cost := len(line) + 1
		if bytesCount+cost > maxReadBytes {
			result.IsTruncated = true
			break
		}
		bytesCount += cost
		raw = append(raw, line)
		formatted = append(formatted, fmt.Sprintf("%05d| %s", start+i+1, line))
	}

	result.Status = "success"
	result.ReadLines = len(formatted)
	result.RawContent = strings.Join(raw, "\n")

	var out strings.Builder
	fmt.Fprintf(&out, "<file path='%s'>\n%s\n</file>", filePath, strings.Join(formatted, "\n"))
	if result.IsTruncated {
		fmt.Fprintf(&out, "\n(Truncated at %d bytes. Use offset=%d to read more)", maxReadBytes, start+len(formatted))
	} else if end < result.TotalLines {
		fmt.Fprintf(&out, "\n(More content available. Use offset=%d to read next chunk)", end)
	}
	result.Output = out.String()

	return encodeResult(result)
}

// suggest lists up to three siblings whose names resemble the missing file.
func (f *FileReadTool) suggest(missing string) []string {
	dir, base := filepath.Dir(missing), strings.ToLower(filepath.Base(missing))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var suggestions []string
	for _, entry := range entries {
		name := entry.Name()
		if f.gateway.Blocked(name) {
			continue
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, base) || strings.Contains(base, lower) {
			suggestions = append(suggestions, name)
			if len(suggestions) == 3 {
				break
			}
		}
	}
	return suggestions
}

// isBinaryFile checks the extension first, then samples the content.
func isBinaryFile(path string) bool {
	if binaryExts[strings.ToLower(filepath.Ext(path))] {
		return true
	}

	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	buffer := make([]byte, 4096)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return false
	}
	if n == 0 {
		return false
	}

	nonPrintable := 0
	for _, b := range buffer[:n] {
		if b == 0 {
			return true
		}
		if b < 9 || (b > 13 && b < 32) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(n) > 0.3
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
