package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "simtrade",
		Short:         "Futures paper-trading account simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML config file (default ./simtrade.yaml when present)")

	root.AddCommand(
		newServeCmd(&configPath),
		newReplayCmd(&configPath),
		newHealthcheckCmd(&configPath),
	)
	return root
}

// newLogger builds the JSON logger for the configured level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// fail logs err through the default logger and returns it so cobra exits
// non-zero.
func fail(msg string, err error) error {
	slog.Error(msg, slog.String("error", err.Error()))
	return fmt.Errorf("%s: %w", msg, err)
}
