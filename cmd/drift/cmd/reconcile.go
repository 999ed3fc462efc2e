package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warp/ledger-drift/api"
	"github.com/warp/ledger-drift/drift"
	"github.com/warp/ledger-drift/source"
)

const (
	flagLedger    = "ledger"
	flagBalances  = "balances"
	flagTolerance = "tolerance"
	flagAccount   = "account"
	flagStatus    = "status"
	flagDetail    = "detail"
)

func newReconcileCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "reconcile",
		Short:   "Reconcile ledger events against balance snapshots",
		Long:    `Reconcile prints the fleet summary and the (optionally filtered) account table as JSON, or one account's detail with --detail.`,
		Example: "drift reconcile --ledger sample-ledger.json --balances sample-balances.json --status minor-drift",
		Args:    cobra.NoArgs,
		RunE:    runReconcile,
	}

	c.Flags().String(flagLedger, "sample-ledger.json", "ledger events document")
	c.Flags().String(flagBalances, "sample-balances.json", "balance snapshots document")
	c.Flags().String(flagTolerance, drift.DefaultTolerance().String(), "points of drift treated as in balance")
	c.Flags().String(flagAccount, "", "case-insensitive account id substring")
	c.Flags().String(flagStatus, string(drift.StatusAll), "all, in-balance, minor-drift or material-mismatch")
	c.Flags().String(flagDetail, "", "print the detail of this account instead of the table")
	return c
}

func runReconcile(ccmd *cobra.Command, args []string) error {
	ledgerPath, _ := ccmd.Flags().GetString(flagLedger)
	balancesPath, _ := ccmd.Flags().GetString(flagBalances)
	toleranceText, _ := ccmd.Flags().GetString(flagTolerance)
	accountText, _ := ccmd.Flags().GetString(flagAccount)
	statusText, _ := ccmd.Flags().GetString(flagStatus)
	detailID, _ := ccmd.Flags().GetString(flagDetail)

	logger := loggerFor(ccmd)

	status, err := drift.ParseStatusFilter(statusText)
	if err != nil {
		return err
	}
	tolerance := drift.ParseTolerance(toleranceText, drift.DefaultTolerance())

	ctx := ccmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ds, err := source.Load(ctx, source.NewFileSource(ledgerPath, balancesPath))
	if err != nil {
		return err
	}

	accounts := drift.ReconcileAll(ds.Events, ds.Snapshots, tolerance)
	summary := drift.Summarize(accounts)

	logger.Info().
		Int("events", len(ds.Events)).
		Int("snapshots", len(ds.Snapshots)).
		Str("overall", string(summary.Overall)).
		Msg(summary.Text())

	if detailID != "" {
		acc, err := drift.Find(accounts, detailID)
		if err != nil {
			return err
		}
		return printJSON(ccmd.OutOrStdout(), api.ToAccountDetailDTO(acc))
	}

	return printJSON(ccmd.OutOrStdout(), api.ReconciliationResponse{
		Tolerance: api.Number(tolerance),
		Summary:   api.ToSummaryDTO(summary),
		Accounts:  api.ToAccountDTOs(drift.Filter(accounts, accountText, status)),
	})
}
