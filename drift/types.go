/*
Package drift is the reconciliation engine.

PURPOSE:
  Replays each account's ledger events into a running balance, compares the
  result with the account's captured snapshot and classifies the drift.
  Per-account results roll up into a fleet summary.

PIPELINE:
  events + snapshots
    -> Aggregate  (aggregate.go)  one record per account, union of ids
    -> Reconcile  (reconcile.go)  sort, replay, diff, classify
    -> Summarize  (summary.go)    fleet counts and overall status
    -> Filter     (summary.go)    id substring + status view

  Data flows strictly forward. No stage modifies the output of another.

DESIGN PRINCIPLES:
  1. Pure: no I/O, no logging, no state between calls
  2. Total: malformed records are coerced, never rejected
  3. Deterministic: output order is first-seen account order
  4. Precision: decimal.Decimal throughout, no float drift in the replay

SEE ALSO:
  - ledger/: input types and coercion policy
  - detail.go: text a presentation layer shows for an account
*/
package drift

import (
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-drift/ledger"
)

// =============================================================================
// STATUS - Drift severity of one account
// =============================================================================

type Status string

const (
	StatusInBalance        Status = "in-balance"        // |diff| <= tolerance
	StatusMinorDrift       Status = "minor-drift"       // |diff| <= tolerance * 10
	StatusMaterialMismatch Status = "material-mismatch" // anything larger
)

// minorDriftFactor sets the outer edge of the minor-drift band relative to
// the tolerance.
const minorDriftFactor = 10

// =============================================================================
// OVERALL - Fleet-wide status
// =============================================================================

type Overall string

const (
	OverallOK   Overall = "ok"   // every account in balance
	OverallWarn Overall = "warn" // at least one minor drift, no material mismatch
	OverallFail Overall = "fail" // at least one material mismatch
	OverallIdle Overall = "idle" // no accounts at all

	// OverallUnavailable is never produced by Summarize. Callers use it when
	// the input collections could not be obtained.
	OverallUnavailable Overall = "unavailable"
)

// =============================================================================
// RECONCILED ACCOUNT
// =============================================================================

// EnrichedEvent is a ledger event plus the balance after applying it.
type EnrichedEvent struct {
	ledger.Event

	// Delta is the coerced PointsDelta that was added during replay.
	Delta decimal.Decimal

	// RunningBalance is the cumulative sum up to and including this event.
	RunningBalance decimal.Decimal
}

// Account is the reconciliation result for one account.
type Account struct {
	AccountID       string
	SnapshotBalance decimal.Decimal
	ComputedBalance decimal.Decimal
	Diff            decimal.Decimal // SnapshotBalance - ComputedBalance
	Status          Status

	// HasSnapshot is false when no snapshot existed and 0 was assumed.
	HasSnapshot bool

	// Events in replay order.
	Events []EnrichedEvent
}

// =============================================================================
// FLEET SUMMARY
// =============================================================================

type Summary struct {
	Total            int
	InBalance        int
	MinorDrift       int
	MaterialMismatch int
	Overall          Overall
}
