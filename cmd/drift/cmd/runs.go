package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warp/ledger-drift/api"
	"github.com/warp/ledger-drift/store/sqlite"
)

const flagLimit = "limit"

func newRunsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "runs",
		Short:   "List recorded reconciliation runs",
		Example: "drift runs --db drift.db --limit 10",
		Args:    cobra.NoArgs,
		RunE:    runRuns,
	}

	c.Flags().String(flagDB, "drift.db", "sqlite database path")
	c.Flags().Int(flagLimit, 20, "maximum number of runs, 0 for all")
	return c
}

func runRuns(ccmd *cobra.Command, args []string) error {
	dbPath, _ := ccmd.Flags().GetString(flagDB)
	limit, _ := ccmd.Flags().GetInt(flagLimit)

	ctx := ccmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	dtos := make([]api.RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, api.ToRunDTO(run))
	}
	return printJSON(ccmd.OutOrStdout(), map[string]any{"runs": dtos})
}
