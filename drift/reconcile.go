/*
reconcile.go - Replay ledgers and classify drift

PURPOSE:
  For every account produced by Aggregate:
  1. Order events by timestamp (stable)
  2. Replay deltas from zero, recording the running balance
  3. Diff = snapshot (or 0) - replayed balance
  4. Classify |diff| against the tolerance

ORDERING:
  Events sort ascending by parsed timestamp. Equal instants keep their input
  order. Events whose timestamp is missing or unparseable are indeterminate:
  they sort before every dated event and keep their input order among
  themselves. The final balance is the same under any order; only the
  per-event running balances depend on it.

CLASSIFICATION (T = tolerance, clamped to >= 0):
  |diff| <= T        in-balance
  |diff| <= T * 10   minor-drift
  otherwise          material-mismatch

EXAMPLE:
  A1: +100 (Jan 1), -20 (Jan 2), snapshot 85, T = 5
  computed = 80, diff = 5, status = in-balance
*/
package drift

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-drift/ledger"
)

// ReconcileAll aggregates and reconciles in one call.
func ReconcileAll(events []ledger.Event, snapshots []ledger.Snapshot, tolerance decimal.Decimal) []Account {
	return Reconcile(Aggregate(events, snapshots), tolerance)
}

// Reconcile replays every grouped account and classifies its drift. The
// result follows the first-seen order of grouped and is rebuilt from
// scratch on every call.
func Reconcile(grouped *Grouped, tolerance decimal.Decimal) []Account {
	tolerance = ClampTolerance(tolerance)

	records := grouped.Accounts()
	accounts := make([]Account, 0, len(records))
	for _, rec := range records {
		accounts = append(accounts, reconcileAccount(rec, tolerance))
	}
	return accounts
}

func reconcileAccount(rec Record, tolerance decimal.Decimal) Account {
	sorted := sortEvents(rec.Events)

	running := decimal.Zero
	enriched := make([]EnrichedEvent, len(sorted))
	for i, evt := range sorted {
		delta := evt.PointsDelta.Value
		running = running.Add(delta)
		enriched[i] = EnrichedEvent{
			Event:          evt,
			Delta:          delta,
			RunningBalance: running,
		}
	}

	snapshot := decimal.Zero
	if rec.Snapshot != nil {
		snapshot = rec.Snapshot.Value
	}
	diff := snapshot.Sub(running)

	return Account{
		AccountID:       rec.AccountID,
		SnapshotBalance: snapshot,
		ComputedBalance: running,
		Diff:            diff,
		Status:          Classify(diff, tolerance),
		HasSnapshot:     rec.Snapshot != nil,
		Events:          enriched,
	}
}

// =============================================================================
// ORDERING
// =============================================================================

type datedEvent struct {
	event ledger.Event
	at    time.Time
	dated bool
}

// sortEvents returns a sorted copy; the input slice is left untouched.
func sortEvents(events []ledger.Event) []ledger.Event {
	dated := make([]datedEvent, len(events))
	for i, evt := range events {
		at, ok := ledger.ParseTimestamp(evt.Timestamp)
		dated[i] = datedEvent{event: evt, at: at, dated: ok}
	}

	sort.SliceStable(dated, func(i, j int) bool {
		a, b := dated[i], dated[j]
		switch {
		case !a.dated:
			return b.dated
		case !b.dated:
			return false
		default:
			return a.at.Before(b.at)
		}
	})

	out := make([]ledger.Event, len(dated))
	for i, d := range dated {
		out[i] = d.event
	}
	return out
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify maps a diff to a drift status. A negative tolerance is treated
// as 0.
func Classify(diff, tolerance decimal.Decimal) Status {
	tolerance = ClampTolerance(tolerance)
	abs := diff.Abs()

	if abs.LessThanOrEqual(tolerance) {
		return StatusInBalance
	}
	if abs.LessThanOrEqual(tolerance.Mul(decimal.NewFromInt(minorDriftFactor))) {
		return StatusMinorDrift
	}
	return StatusMaterialMismatch
}
