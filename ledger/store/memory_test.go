package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-drift/ledger"
	"github.com/warp/ledger-drift/ledger/store"
)

func TestMemory_ImportAndRead(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryWith(
		[]ledger.Event{{AccountID: "A1", PointsDelta: ledger.NewPointsFromInt(10)}},
		[]ledger.Snapshot{{AccountID: "A1", SnapshotBalance: ledger.NewPointsFromInt(10)}},
	)

	require.NoError(t, m.ImportEvents(ctx, []ledger.Event{{AccountID: "B2"}}))
	require.NoError(t, m.ImportSnapshots(ctx, []ledger.Snapshot{{AccountID: "B2"}}))

	events, err := m.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "A1", events[0].AccountID)
	assert.Equal(t, "B2", events[1].AccountID)

	snapshots, err := m.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestMemory_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryWith([]ledger.Event{{AccountID: "A1"}}, nil)

	// GIVEN: a caller that mutates what it read
	events, _ := m.Events(ctx)
	events[0].AccountID = "changed"

	// THEN: the store is unaffected
	again, _ := m.Events(ctx)
	assert.Equal(t, "A1", again[0].AccountID)
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryWith([]ledger.Event{{AccountID: "A1"}}, []ledger.Snapshot{{AccountID: "A1"}})

	require.NoError(t, m.Reset(ctx))

	events, _ := m.Events(ctx)
	snapshots, _ := m.Snapshots(ctx)
	assert.Empty(t, events)
	assert.Empty(t, snapshots)
}
