package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/ledger-drift/source"
	"github.com/warp/ledger-drift/store/sqlite"
)

const (
	flagDB    = "db"
	flagReset = "reset"
)

func newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "import",
		Short:   "Append ledger documents to a sqlite database",
		Long:    `Import validates both documents and appends them to the database. Nothing is written unless both documents load.`,
		Example: "drift import --db drift.db --ledger sample-ledger.json --balances sample-balances.json",
		Args:    cobra.NoArgs,
		RunE:    runImport,
	}

	c.Flags().String(flagDB, "drift.db", "sqlite database path")
	c.Flags().String(flagLedger, "sample-ledger.json", "ledger events document")
	c.Flags().String(flagBalances, "sample-balances.json", "balance snapshots document")
	c.Flags().Bool(flagReset, false, "clear previously imported ledger data first (run history is kept)")
	return c
}

func runImport(ccmd *cobra.Command, args []string) error {
	dbPath, _ := ccmd.Flags().GetString(flagDB)
	ledgerPath, _ := ccmd.Flags().GetString(flagLedger)
	balancesPath, _ := ccmd.Flags().GetString(flagBalances)
	reset, _ := ccmd.Flags().GetBool(flagReset)

	logger := loggerFor(ccmd)

	ctx := ccmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ds, err := source.Load(ctx, source.NewFileSource(ledgerPath, balancesPath))
	if err != nil {
		return err
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ImportDataset(ctx, ds, reset); err != nil {
		return err
	}

	logger.Info().Str("db", dbPath).Bool("reset", reset).Msg("import complete")
	_, err = fmt.Fprintf(ccmd.OutOrStdout(), "imported %d events and %d snapshots into %s\n",
		len(ds.Events), len(ds.Snapshots), dbPath)
	return err
}
