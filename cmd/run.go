package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriAgent/internal/core"
	"github.com/Rorical/RoriAgent/internal/sandbox"
	"github.com/Rorical/RoriAgent/internal/tools"
	"github.com/Rorical/RoriAgent/ui/components"
)

var (
	autoApprove   bool
	maxToolCalls  int
	workspaceRoot string
)

var runCmd = &cobra.Command{
	Use:   "run [prompt...]",
	Short: "Answer a single prompt and exit",
	Long: `Run one conversation turn without the TUI. The prompt is taken from the
arguments, or from stdin when none are given. Tool activity is printed as it
happens and the final answer is written last.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readPrompt(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		cfg := mustLoadConfig()
		if !cfg.IsValid() {
			return fmt.Errorf("profile '%s' is not configured; run 'roriagent profile edit' or set HF_TOKEN", cfg.ActiveProfile)
		}

		gateway, err := openWorkspace()
		if err != nil {
			return err
		}

		var confirmator tools.Confirmator = promptConfirmator{}
		if autoApprove {
			confirmator = nil
		}

		agent, err := core.NewAgent(cfg, gateway, confirmator, stderrLogger())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		calls := 0
		for event := range agent.Chat(ctx, input) {
			fmt.Fprintln(out, components.RenderEntry(core.EntryFromEvent(event), 0))

			switch event.Kind {
			case core.FatalError:
				return event.Err
			case core.ToolCallAnnounced:
				calls++
			case core.ToolResultAnnounced:
				if maxToolCalls > 0 && calls >= maxToolCalls {
					return fmt.Errorf("stopped after %d tool calls", calls)
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return errors.New("interrupted")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "approve every shell command without asking")
	runCmd.Flags().IntVar(&maxToolCalls, "max-tool-calls", 0, "stop after this many tool calls (0 means no limit)")
	runCmd.Flags().StringVarP(&workspaceRoot, "workspace", "w", "", "directory the file tools are confined to (default: current directory)")
	rootCmd.AddCommand(runCmd)
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	input := strings.TrimSpace(strings.Join(args, " "))
	if input == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt: %w", err)
		}
		input = strings.TrimSpace(string(data))
	}
	if input == "" {
		return "", errors.New("empty prompt")
	}
	return input, nil
}

func openWorkspace() (*sandbox.Gateway, error) {
	if workspaceRoot == "" {
		return sandbox.FromWorkingDir()
	}
	return sandbox.New(workspaceRoot)
}

// promptConfirmator asks on the terminal before a shell command runs.
type promptConfirmator struct{}

func (promptConfirmator) RequestConfirmation(operation, command string, dangerous bool) bool {
	label := operation + ": " + command
	if dangerous {
		label = "⚠ " + label
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}
