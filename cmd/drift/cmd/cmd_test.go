package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-drift/api"
	"github.com/warp/ledger-drift/cmd/drift/cmd"
	"github.com/warp/ledger-drift/drift"
	"github.com/warp/ledger-drift/ledger"
	"github.com/warp/ledger-drift/store/sqlite"
)

const ledgerDoc = `[
  {"account_id":"ACC-1","timestamp":"2024-01-01T00:00:00Z","type":"earn","points_delta":100},
  {"account_id":"ACC-1","timestamp":"2024-01-02T00:00:00Z","type":"redeem","points_delta":-20},
  {"account_id":"ACC-2","timestamp":"2024-01-01T00:00:00Z","type":"earn","points_delta":50}
]`

const balancesDoc = `[
  {"account_id":"ACC-1","snapshot_balance":80},
  {"account_id":"ACC-2","snapshot_balance":60}
]`

func writeDocs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.json")
	balancesPath := filepath.Join(dir, "balances.json")
	require.NoError(t, os.WriteFile(ledgerPath, []byte(ledgerDoc), 0o600))
	require.NoError(t, os.WriteFile(balancesPath, []byte(balancesDoc), 0o600))
	return ledgerPath, balancesPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := cmd.NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReconcile(t *testing.T) {
	ledgerPath, balancesPath := writeDocs(t)

	out, err := run(t, "reconcile", "--ledger", ledgerPath, "--balances", balancesPath)
	require.NoError(t, err)

	var resp api.ReconciliationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, "warn", resp.Summary.Overall)
	require.Len(t, resp.Accounts, 2)
	assert.Equal(t, "ACC-1", resp.Accounts[0].AccountID)
}

func TestReconcile_StatusFilterAndDetail(t *testing.T) {
	ledgerPath, balancesPath := writeDocs(t)

	out, err := run(t, "reconcile", "--ledger", ledgerPath, "--balances", balancesPath, "--status", "minor-drift")
	require.NoError(t, err)
	var resp api.ReconciliationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "ACC-2", resp.Accounts[0].AccountID)
	assert.Equal(t, 2, resp.Summary.Total)

	out, err = run(t, "reconcile", "--ledger", ledgerPath, "--balances", balancesPath, "--detail", "ACC-2")
	require.NoError(t, err)
	var detail api.AccountDetailDTO
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "Account ACC-2 is showing minor drift.", detail.Headline)
	assert.Equal(t, "+10", detail.DiffText)
}

func TestReconcile_Errors(t *testing.T) {
	ledgerPath, balancesPath := writeDocs(t)

	_, err := run(t, "reconcile", "--ledger", ledgerPath, "--balances", balancesPath, "--status", "bad")
	assert.True(t, errors.Is(err, ledger.ErrInvalidStatusFilter))

	_, err = run(t, "reconcile", "--ledger", ledgerPath, "--balances", balancesPath, "--detail", "NOPE")
	assert.True(t, errors.Is(err, ledger.ErrAccountNotFound))

	_, err = run(t, "reconcile", "--ledger", filepath.Join(t.TempDir(), "missing.json"), "--balances", balancesPath)
	assert.True(t, errors.Is(err, ledger.ErrSourceUnavailable))
}

func TestImportAndRuns(t *testing.T) {
	ledgerPath, balancesPath := writeDocs(t)
	dbPath := filepath.Join(t.TempDir(), "drift.db")

	out, err := run(t, "import", "--db", dbPath, "--ledger", ledgerPath, "--balances", balancesPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 events and 2 snapshots")

	// record a run directly so the runs command has something to list
	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	events, err := store.Events(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 3)
	summary := drift.Summarize(drift.ReconcileAll(events, nil, drift.DefaultTolerance()))
	require.NoError(t, store.SaveRun(context.Background(), drift.NewRun(summary, drift.DefaultTolerance())))
	require.NoError(t, store.Close())

	out, err = run(t, "runs", "--db", dbPath)
	require.NoError(t, err)

	var listed map[string][]api.RunDTO
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed["runs"], 1)
	assert.Equal(t, 2, listed["runs"][0].Summary.Total)
}

func TestImport_Reset(t *testing.T) {
	ledgerPath, balancesPath := writeDocs(t)
	dbPath := filepath.Join(t.TempDir(), "drift.db")

	for i := 0; i < 2; i++ {
		_, err := run(t, "import", "--db", dbPath, "--ledger", ledgerPath, "--balances", balancesPath)
		require.NoError(t, err)
	}
	countEvents := func() int {
		store, err := sqlite.New(dbPath)
		require.NoError(t, err)
		defer store.Close()
		events, err := store.Events(context.Background())
		require.NoError(t, err)
		return len(events)
	}
	assert.Equal(t, 6, countEvents())

	_, err := run(t, "import", "--db", dbPath, "--ledger", ledgerPath, "--balances", balancesPath, "--reset")
	require.NoError(t, err)
	assert.Equal(t, 3, countEvents())
}
