package drift

import (
	"github.com/warp/ledger-drift/ledger"
)

// =============================================================================
// AGGREGATE - One unreconciled record per account
// =============================================================================

// Record is an account's raw events (input order) and its snapshot, if any.
type Record struct {
	AccountID string
	Events    []ledger.Event
	Snapshot  *ledger.Points
}

// Grouped holds the per-account records in first-seen order: accounts in the
// order they first appear in the events, then snapshot-only accounts in
// snapshot order.
type Grouped struct {
	records []Record
	index   map[string]int
}

// Aggregate groups events by account and attaches each account's snapshot.
//
// Grouping never reorders events within an account. When an account has
// several snapshots the later one wins. Records with missing fields pass
// through as they are; an absent account id groups under "".
func Aggregate(events []ledger.Event, snapshots []ledger.Snapshot) *Grouped {
	g := &Grouped{index: make(map[string]int)}

	for _, evt := range events {
		i := g.slot(evt.AccountID)
		g.records[i].Events = append(g.records[i].Events, evt)
	}

	for _, snap := range snapshots {
		i := g.slot(snap.AccountID)
		balance := snap.SnapshotBalance
		g.records[i].Snapshot = &balance
	}

	return g
}

func (g *Grouped) slot(accountID string) int {
	if i, ok := g.index[accountID]; ok {
		return i
	}
	g.records = append(g.records, Record{AccountID: accountID})
	i := len(g.records) - 1
	g.index[accountID] = i
	return i
}

// Accounts returns the records in first-seen order.
func (g *Grouped) Accounts() []Record {
	if g == nil {
		return nil
	}
	out := make([]Record, len(g.records))
	copy(out, g.records)
	return out
}

// Get returns the record for an account.
func (g *Grouped) Get(accountID string) (Record, bool) {
	if g == nil {
		return Record{}, false
	}
	i, ok := g.index[accountID]
	if !ok {
		return Record{}, false
	}
	return g.records[i], true
}

func (g *Grouped) Len() int {
	if g == nil {
		return 0
	}
	return len(g.records)
}
