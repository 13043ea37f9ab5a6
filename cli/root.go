package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/luahook/eventlog"
)

var (
	logPath string
)

var rootCmd = &cobra.Command{
	Use:          "luahook",
	Short:        "Inspect and simulate the lua_dofile injection shim",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Event log file (default: stderr)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(providersCmd)
}

// newLogger returns the event logger for a command, writing to --log or to
// the command's error stream.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(eventlog.NewHandler(logPath, &eventlog.Options{Fallback: cmd.ErrOrStderr()}))
}
