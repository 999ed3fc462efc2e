package drift_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-drift/drift"
	"github.com/warp/ledger-drift/ledger"
)

func account(id string, status drift.Status) drift.Account {
	return drift.Account{AccountID: id, Status: status}
}

func fleet() []drift.Account {
	return []drift.Account{
		account("acct-1", drift.StatusInBalance),
		account("ACCT-10", drift.StatusMinorDrift),
		account("acct-2", drift.StatusMaterialMismatch),
		account("other", drift.StatusInBalance),
		account("xAcCt-12", drift.StatusInBalance),
	}
}

// =============================================================================
// SUMMARIZE
// =============================================================================

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		statuses []drift.Status
		want     drift.Summary
	}{
		{
			name: "no accounts is idle, not ok",
			want: drift.Summary{Overall: drift.OverallIdle},
		},
		{
			name:     "all in balance",
			statuses: []drift.Status{drift.StatusInBalance, drift.StatusInBalance},
			want:     drift.Summary{Total: 2, InBalance: 2, Overall: drift.OverallOK},
		},
		{
			name:     "minor drift warns",
			statuses: []drift.Status{drift.StatusInBalance, drift.StatusMinorDrift},
			want:     drift.Summary{Total: 2, InBalance: 1, MinorDrift: 1, Overall: drift.OverallWarn},
		},
		{
			name:     "any material mismatch fails",
			statuses: []drift.Status{drift.StatusMinorDrift, drift.StatusMaterialMismatch, drift.StatusInBalance},
			want:     drift.Summary{Total: 3, InBalance: 1, MinorDrift: 1, MaterialMismatch: 1, Overall: drift.OverallFail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var accounts []drift.Account
			for i, s := range tt.statuses {
				accounts = append(accounts, account(string(rune('a'+i)), s))
			}

			got := drift.Summarize(accounts)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.InBalance+got.MinorDrift+got.MaterialMismatch)
			assert.Equal(t, got.MaterialMismatch > 0, got.Overall == drift.OverallFail)
		})
	}
}

func TestSummarize_FromReconciledFleet(t *testing.T) {
	events := []ledger.Event{
		evt("A1", "2024-01-01", 100),
		evt("A2", "2024-01-01", 100),
		evt("A3", "2024-01-01", 100),
	}
	snapshots := []ledger.Snapshot{snap("A1", 103), snap("A2", 120), snap("A3", 200), snap("A4", 0)}

	summary := drift.Summarize(drift.ReconcileAll(events, snapshots, decimal.NewFromInt(5)))

	assert.Equal(t, drift.Summary{Total: 4, InBalance: 2, MinorDrift: 1, MaterialMismatch: 1, Overall: drift.OverallFail}, summary)
	assert.Equal(t, "4 accounts checked: 2 in balance, 1 with minor drift, 1 with material mismatches.", summary.Text())
}

func TestSummary_TextIdle(t *testing.T) {
	assert.Equal(t, "No accounts found.", drift.Summarize(nil).Text())
}

// =============================================================================
// FILTER
// =============================================================================

func TestFilter_EmptyTextAndAllReturnsEverythingInOrder(t *testing.T) {
	accounts := fleet()

	got := drift.Filter(accounts, "", drift.StatusAll)

	assert.Equal(t, ids(accounts), ids(got))
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	got := drift.Filter(fleet(), "acct-1", drift.StatusAll)
	assert.Equal(t, []string{"acct-1", "ACCT-10", "xAcCt-12"}, ids(got))

	got = drift.Filter(fleet(), "  ACCT-1  ", drift.StatusAll)
	assert.Equal(t, []string{"acct-1", "ACCT-10", "xAcCt-12"}, ids(got))
}

func TestFilter_ByStatus(t *testing.T) {
	got := drift.Filter(fleet(), "", drift.StatusFilter(drift.StatusInBalance))
	assert.Equal(t, []string{"acct-1", "other", "xAcCt-12"}, ids(got))

	got = drift.Filter(fleet(), "acct", drift.StatusFilter(drift.StatusMaterialMismatch))
	assert.Equal(t, []string{"acct-2"}, ids(got))

	got = drift.Filter(fleet(), "zzz", drift.StatusAll)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	accounts := fleet()
	before := ids(accounts)

	_ = drift.Filter(accounts, "acct", drift.StatusFilter(drift.StatusMinorDrift))

	assert.Equal(t, before, ids(accounts))
}

func TestParseStatusFilter(t *testing.T) {
	for _, in := range []string{"", "all", "in-balance", "minor-drift", "material-mismatch"} {
		t.Run(in, func(t *testing.T) {
			_, err := drift.ParseStatusFilter(in)
			assert.NoError(t, err)
		})
	}

	f, err := drift.ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, drift.StatusAll, f)

	_, err = drift.ParseStatusFilter("broken")
	assert.True(t, errors.Is(err, ledger.ErrInvalidStatusFilter))
}

func TestFind(t *testing.T) {
	acc, err := drift.Find(fleet(), "acct-2")
	require.NoError(t, err)
	assert.Equal(t, drift.StatusMaterialMismatch, acc.Status)

	_, err = drift.Find(fleet(), "ACCT-2")
	assert.True(t, errors.Is(err, ledger.ErrAccountNotFound))
}
