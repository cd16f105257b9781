package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/recordstore/config"
	"github.com/jpalmerr/recordstore/internal/scenario"
	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// runCmd replays a scenario against a fresh store.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Long: `Run a recordstore scenario against a fresh store.

Every listener call and every get step is printed to stdout as one JSON
object per line. Logs go to stderr.

The run stops early if interrupted (Ctrl+C) or on SIGTERM.

Example:
  recordstore run -f person.yaml
  recordstore run -f person.yaml --log-level debug`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("file", "f", "", "path to scenario file (required)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelName, err)
	}
	logger := newLogger(level)

	file, _ := cmd.Flags().GetString("file")
	sc, err := config.Load(file)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := scenario.Run(ctx, sc, os.Stdout, logger)
	if err != nil {
		return fmt.Errorf("scenario failed: %w", err)
	}

	logger.Debug("run complete",
		"steps", report.Steps,
		"notifications", report.Notifications,
		"reads", report.Reads,
	)
	return nil
}
