package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/farewatch/farewatch/config"
)

var rootCmd = &cobra.Command{
	Use:   "farewatch",
	Short: "farewatch records Uber fare estimates for fixed routes",
	Long: `farewatch logs into the Uber mobile site with a rider account, walks the
fare estimate page for each configured route, and appends one CSV row per
ride type per run. Point it at a schedule (cron, systemd timer) to build a
fare history over time.

Configuration comes from FAREWATCH_* and UBER_* environment variables,
or a .env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Interrupts cancel ctx, which unwinds whatever
// command is in flight.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
