package source

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/warp/ledger-drift/ledger"
)

// Dataset is a fully materialized pair of input collections.
type Dataset struct {
	Events    []ledger.Event
	Snapshots []ledger.Snapshot
}

// Load fetches both collections concurrently. It returns an error wrapping
// ledger.ErrSourceUnavailable if either side fails.
func Load(ctx context.Context, src ledger.Source) (Dataset, error) {
	var ds Dataset
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		events, err := src.Events(ctx)
		if err != nil {
			return fmt.Errorf("load ledger events: %w", err)
		}
		ds.Events = events
		return nil
	})

	group.Go(func() error {
		snapshots, err := src.Snapshots(ctx)
		if err != nil {
			return fmt.Errorf("load balance snapshots: %w", err)
		}
		ds.Snapshots = snapshots
		return nil
	})

	if err := group.Wait(); err != nil {
		return Dataset{}, fmt.Errorf("%w: %w", ledger.ErrSourceUnavailable, err)
	}
	return ds, nil
}
