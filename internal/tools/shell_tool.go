package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

const (
	defaultShellTimeoutMs = 30000
	maxShellTimeoutMs     = 10 * 60 * 1000
)

// ShellTool runs a command through the platform shell inside the sandbox.
// Commands that are not plainly read-only go through the Confirmator first.
type ShellTool struct {
	gateway     *sandbox.Gateway
	confirmator Confirmator
	logger      *slog.Logger
}

type shellResult struct {
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	ExitCode int     `json:"exit_code"`
	Error    *string `json:"error"`
}

func NewShellTool(deps Deps) (Tool, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("bash_tool requires a sandbox gateway")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ShellTool{gateway: deps.Gateway, confirmator: deps.Confirmator, logger: logger}, nil
}

func (s *ShellTool) Name() string {
	return "bash_tool"
}

func (s *ShellTool) Schema() Schema {
	return Schema{
		Name:        s.Name(),
		Description: "Executes a bash command. Returns a JSON string with stdout, stderr, and exit_code.",
		Params: []Param{
			{Name: "command", Type: TypeString, Required: true, Description: "The bash command string to execute."},
			{Name: "workdir", Type: TypeString, Description: "Optional relative path to the working directory."},
			{Name: "timeout", Type: TypeInteger, Description: "Timeout in milliseconds (default 30000, at most 600000)."},
		},
	}
}

func (s *ShellTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	command := stringArg(args, "command", "")
	workdir := stringArg(args, "workdir", "")
	timeoutMs := intArg(args, "timeout", defaultShellTimeoutMs)
	if timeoutMs <= 0 {
		timeoutMs = defaultShellTimeoutMs
	}
	timeoutMs = min(timeoutMs, maxShellTimeoutMs)

	result := shellResult{ExitCode: -1}
	fail := func(msg string) (string, error) {
		result.Error = &msg
		return encodeResult(result)
	}

	dirArg := workdir
	if dirArg == "" {
		dirArg = "."
	}
	dir, err := s.gateway.Resolve(dirArg)
	if err != nil {
		return fail(fmt.Sprintf("Security Violation: %v", err))
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fail(fmt.Sprintf("Directory not found: %s", dirArg))
	}

	if s.confirmator != nil && isDangerousCommand(command) {
		if !s.confirmator.RequestConfirmation("Execute shell command", command, true) {
			s.logger.Info("shell command rejected by user", "command", preview(command, 100))
			return fail("User aborted command execution")
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := shellCommand(cmdCtx, command)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result.Stdout = strings.TrimSpace(stdout.String())
	result.Stderr = strings.TrimSpace(stderr.String())

	switch {
	case runErr == nil:
		result.ExitCode = 0
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.Stderr = fmt.Sprintf("Execution exceeded %dms", timeoutMs)
		return fail("Command timed out")
	case ctx.Err() != nil:
		return fail(fmt.Sprintf("Command cancelled: %v", ctx.Err()))
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return fail(runErr.Error())
		}
	}
	return encodeResult(result)
}

var commandSeparators = regexp.MustCompile(`&&|\|\||[;|&\n]`)

// Leading words of commands that only read state.
var readOnlyCommands = []string{
	"ls", "dir", "pwd", "echo", "cat", "type", "find", "grep", "rg",
	"head", "tail", "wc", "sort", "uniq", "which", "where", "tree", "file", "stat",
	"git status", "git log", "git diff", "git show", "git branch",
	"go version", "go env", "go list", "go vet", "go test", "go build",
	"npm list", "pip list", "node --version", "python --version",
}

// isDangerousCommand reports whether any segment of a compound command is
// not in the read-only list. Output redirection and substitution always count
// as dangerous.
func isDangerousCommand(command string) bool {
	if strings.ContainsAny(command, ">`") || strings.Contains(command, "$(") {
		return true
	}
	segments := commandSeparators.Split(command, -1)
	checked := 0
	for _, segment := range segments {
		segment = strings.ToLower(strings.Join(strings.Fields(segment), " "))
		if segment == "" {
			continue
		}
		checked++
		if !hasReadOnlyPrefix(segment) {
			return true
		}
	}
	return checked == 0
}

func hasReadOnlyPrefix(segment string) bool {
	for _, prefix := range readOnlyCommands {
		if segment == prefix || strings.HasPrefix(segment, prefix+" ") {
			return true
		}
	}
	return false
}
