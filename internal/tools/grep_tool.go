package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

const (
	grepMaxResults  = 1000
	grepMaxLineLen  = 300
	binarySniffSize = 1024
)

// Directories never descended into.
var grepDefaultExcludes = map[string]bool{
	".git": true, "node_modules": true, "__pycache__": true, ".next": true,
	"dist": true, "build": true, ".DS_Store": true,
}

// GrepTool searches file contents for a regular expression.
type GrepTool struct {
	gateway *sandbox.Gateway
}

type grepMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

type grepResult struct {
	Status   string      `json:"status"`
	Matches  []grepMatch `json:"matches"`
	Count    int         `json:"count"`
	LimitHit bool        `json:"limit_hit"`
	Output   string      `json:"output"`
	Error    *string     `json:"error"`
}

func NewGrepTool(deps Deps) (Tool, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("grep_tool requires a sandbox gateway")
	}
	return &GrepTool{gateway: deps.Gateway}, nil
}

func (g *GrepTool) Name() string {
	return "grep_tool"
}

func (g *GrepTool) Schema() Schema {
	return Schema{
		Name:        g.Name(),
		Description: "Search for a regular expression pattern in files. Returns a JSON string containing match details.",
		Params: []Param{
			{Name: "query", Type: TypeString, Required: true, Description: "The regular expression pattern to search for."},
			{Name: "path", Type: TypeString, Description: "The relative path to the directory to search in."},
			{Name: "include", Type: TypeArray, Items: TypeString, Description: "Glob patterns to include (e.g. [\"*.ts\"])."},
			{Name: "exclude", Type: TypeArray, Items: TypeString, Description: "Glob patterns to exclude (e.g. [\"**/node_modules\"])."},
			{Name: "case_sensitive", Type: TypeBoolean, Description: "Whether the search should be case sensitive."},
		},
	}
}

func (g *GrepTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	query := stringArg(args, "query", "")
	searchPath := stringArg(args, "path", ".")
	include := stringListArg(args, "include")
	exclude := stringListArg(args, "exclude")
	caseSensitive := boolArg(args, "case_sensitive", false)

	result := grepResult{Status: "success", Matches: []grepMatch{}}
	fail := func(msg string) (string, error) {
		result.Status = "error"
		result.Error = &msg
		return encodeResult(result)
	}

	target, err := g.gateway.Resolve(searchPath)
	if err != nil {
		return fail(fmt.Sprintf("Security Error: %v", err))
	}
	info, err := os.Stat(target)
	if err != nil {
		return fail(fmt.Sprintf("Path not found: %s", searchPath))
	}

	expr := query
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fail(fmt.Sprintf("Invalid Regex: %v", err))
	}

	root := g.gateway.Root()
	var formatted []string

	scan := func(file string) {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		if len(include) > 0 && !matchesAnyGlob(include, rel) {
			return
		}
		if matchesAnyGlob(exclude, rel) {
			return
		}
		for _, m := range grepFile(file, rel, re, grepMaxResults-len(result.Matches)) {
			result.Matches = append(result.Matches, m)
			formatted = append(formatted, fmt.Sprintf("%s:%d: %s", m.File, m.Line, m.Content))
		}
		if len(result.Matches) >= grepMaxResults {
			result.LimitHit = true
		}
	}

	if !info.IsDir() {
		scan(target)
	} else {
		walkErr := filepath.WalkDir(target, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if result.LimitHit {
				return filepath.SkipAll
			}
			if p == target {
				return nil
			}
			name := d.Name()
			if d.IsDir() {
				if grepDefaultExcludes[name] || g.gateway.Blocked(name) || matchesAnyGlob(exclude, name) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			if g.gateway.Blocked(name) {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				rel, err := filepath.Rel(root, p)
				if err != nil {
					return nil
				}
				resolved, err := g.gateway.Resolve(rel)
				if err != nil {
					return nil
				}
				if fi, err := os.Stat(resolved); err != nil || fi.IsDir() {
					return nil
				}
			}
			scan(p)
			return nil
		})
		if walkErr != nil {
			return fail(fmt.Sprintf("Search aborted: %v", walkErr))
		}
	}

	result.Count = len(result.Matches)
	if result.Count == 0 {
		result.Output = "No matches found."
	} else {
		result.Output = strings.Join(formatted, "\n")
		if result.LimitHit {
			result.Output += fmt.Sprintf("\n\n(Results truncated at %d matches)", grepMaxResults)
		}
	}
	return encodeResult(result)
}

// grepFile returns at most limit matching lines of file. Unreadable and
// binary files yield nothing.
func grepFile(file, rel string, re *regexp.Regexp, limit int) []grepMatch {
	if limit <= 0 {
		return nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	if head, _ := reader.Peek(binarySniffSize); bytes.IndexByte(head, 0) >= 0 {
		return nil
	}

	var matches []grepMatch
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadString('\n')
		if len(line) > 0 && re.MatchString(line) {
			content := strings.TrimSpace(line)
			if len(content) > grepMaxLineLen {
				content = content[:grepMaxLineLen] + "..."
			}
			matches = append(matches, grepMatch{File: rel, Line: lineNo, Content: content})
			if len(matches) >= limit {
				return matches
			}
		}
		if err != nil {
			return matches
		}
	}
}

func matchesAnyGlob(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}
