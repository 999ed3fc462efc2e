// Package store provides in-memory Source implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/ledger-drift/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	events    []ledger.Event
	snapshots []ledger.Snapshot
}

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith returns a store preloaded with the given collections.
func NewMemoryWith(events []ledger.Event, snapshots []ledger.Snapshot) *Memory {
	m := NewMemory()
	m.events = append(m.events, events...)
	m.snapshots = append(m.snapshots, snapshots...)
	return m
}

// ImportEvents appends events in the given order.
func (m *Memory) ImportEvents(_ context.Context, events []ledger.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

// ImportSnapshots appends snapshots in the given order.
func (m *Memory) ImportSnapshots(_ context.Context, snapshots []ledger.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

// Events returns a copy so callers can hand it to the engine while imports
// continue.
func (m *Memory) Events(_ context.Context) ([]ledger.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Event, len(m.events))
	copy(result, m.events)
	return result, nil
}

func (m *Memory) Snapshots(_ context.Context) ([]ledger.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Snapshot, len(m.snapshots))
	copy(result, m.snapshots)
	return result, nil
}

// Reset drops everything.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.snapshots = nil
	return nil
}
