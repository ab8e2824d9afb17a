package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriAgent/internal/app"
	"github.com/Rorical/RoriAgent/internal/config"
	"github.com/Rorical/RoriAgent/internal/logging"
)

var (
	logLevel string
	envFile  string
)

var rootCmd = &cobra.Command{
	Use:   "roriagent",
	Short: "A terminal agent that works on your files",
	Long: `RoriAgent is a conversational agent for the terminal. It answers with the
help of tools that read, search and edit files in the current directory and
run shell commands after asking for approval.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return err
		}
		return config.LoadDotEnv(envFile)
	},
	Run: func(cmd *cobra.Command, args []string) {
		runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys")

	rootCmd.AddCommand(profileCmd)
}

// runTUI starts the interactive chat. The terminal belongs to the TUI, so
// logs go to agent.log in the config directory.
func runTUI() {
	cfg := mustLoadConfig()

	logger, closeLog := fileLogger()
	defer closeLog()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func level() slog.Level {
	lvl, _ := logging.ParseLevel(logLevel)
	return lvl
}

func fileLogger() (*slog.Logger, func()) {
	dir, err := config.Dir()
	if err != nil {
		return logging.Discard(), func() {}
	}
	f, err := logging.OpenFile(filepath.Join(dir, "agent.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		return logging.Discard(), func() {}
	}
	return logging.New(f, level()), func() { f.Close() }
}

func stderrLogger() *slog.Logger {
	return logging.New(os.Stderr, level())
}
