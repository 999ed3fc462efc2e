package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/ledger-drift/config"
)

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "drift",
		Short:         "Drift reconciles a points ledger against balance snapshots",
		Long:          `Drift replays each account's ledger events into a running balance, compares it with the captured snapshot and classifies the difference as in balance, minor drift or material mismatch.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console or json)")

	root.AddCommand(newReconcileCmd(), newImportCmd(), newRunsCmd())
	return root
}

func loggerFor(ccmd *cobra.Command) zerolog.Logger {
	level, _ := ccmd.Flags().GetString("log-level")
	format, _ := ccmd.Flags().GetString("log-format")
	return config.NewLogger(level, format, ccmd.ErrOrStderr())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
