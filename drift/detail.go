package drift

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LABELS - Human-readable names for statuses
// =============================================================================

func (s Status) Label() string {
	switch s {
	case StatusInBalance:
		return "In balance"
	case StatusMinorDrift:
		return "Minor drift"
	case StatusMaterialMismatch:
		return "Material mismatch"
	default:
		return string(s)
	}
}

func (o Overall) Label() string {
	switch o {
	case OverallOK:
		return "All accounts in balance (within tolerance)"
	case OverallWarn:
		return "Minor reconciliation drift"
	case OverallFail:
		return "Material ledger mismatches detected"
	case OverallUnavailable:
		return "Ledger data unavailable"
	default:
		return "No accounts loaded"
	}
}

// FormatDiff renders a signed diff: "0", "+5" or "-3".
func FormatDiff(diff decimal.Decimal) string {
	if diff.IsZero() {
		return "0"
	}
	if diff.IsPositive() {
		return "+" + diff.String()
	}
	return diff.String()
}

// =============================================================================
// DETAIL - Explanation of a single account
// =============================================================================

type Detail struct {
	Headline  string
	Narrative string
	Diff      string
}

// Describe explains how an account's snapshot compares to its replayed
// ledger.
func Describe(acc Account) Detail {
	var state string
	switch acc.Status {
	case StatusInBalance:
		state = "in balance (within tolerance)"
	case StatusMinorDrift:
		state = "showing minor drift"
	default:
		state = "showing a material mismatch"
	}

	d := Detail{
		Headline: fmt.Sprintf("Account %s is %s.", acc.AccountID, state),
		Diff:     FormatDiff(acc.Diff),
	}

	if acc.Diff.IsZero() {
		d.Narrative = fmt.Sprintf(
			"Snapshot balance (%s points) matches the reconstructed balance from events (%s points).",
			acc.SnapshotBalance, acc.ComputedBalance)
		return d
	}

	direction := "lower"
	if acc.Diff.IsPositive() {
		direction = "higher"
	}
	d.Narrative = fmt.Sprintf(
		"Snapshot balance (%s points) is %s than the event-level balance (%s points) by %s points. "+
			"This usually indicates a missing correction, backfill, or out-of-order event.",
		acc.SnapshotBalance, direction, acc.ComputedBalance, acc.Diff.Abs())
	return d
}
