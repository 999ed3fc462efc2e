package source

import (
	"context"
	"fmt"
	"os"

	"github.com/warp/ledger-drift/ledger"
)

// FileSource reads both collections from JSON documents on disk.
type FileSource struct {
	LedgerPath   string
	BalancesPath string
}

func NewFileSource(ledgerPath, balancesPath string) *FileSource {
	return &FileSource{LedgerPath: ledgerPath, BalancesPath: balancesPath}
}

func (s *FileSource) Events(_ context.Context) ([]ledger.Event, error) {
	raw, err := os.ReadFile(s.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file %s: %w", s.LedgerPath, err)
	}
	return DecodeEvents(s.LedgerPath, raw)
}

func (s *FileSource) Snapshots(_ context.Context) ([]ledger.Snapshot, error) {
	raw, err := os.ReadFile(s.BalancesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances file %s: %w", s.BalancesPath, err)
	}
	return DecodeSnapshots(s.BalancesPath, raw)
}
