package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/warp/ledger-drift/ledger"
)

// maxDocumentBytes bounds a fetched document unless MaxBytes is set.
const maxDocumentBytes = 32 << 20

// ErrDocumentTooLarge is returned when a fetched document exceeds the size
// limit.
var ErrDocumentTooLarge = errors.New("document too large")

// HTTPSource fetches both collections as JSON documents over HTTP.
type HTTPSource struct {
	LedgerURL   string
	BalancesURL string
	Client      *http.Client

	// MaxBytes bounds each document. Zero means 32 MiB.
	MaxBytes int64
}

func NewHTTPSource(ledgerURL, balancesURL string) *HTTPSource {
	return &HTTPSource{
		LedgerURL:   ledgerURL,
		BalancesURL: balancesURL,
		Client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPSource) Events(ctx context.Context) ([]ledger.Event, error) {
	raw, err := s.fetch(ctx, s.LedgerURL)
	if err != nil {
		return nil, err
	}
	return DecodeEvents(s.LedgerURL, raw)
}

func (s *HTTPSource) Snapshots(ctx context.Context) ([]ledger.Snapshot, error) {
	raw, err := s.fetch(ctx, s.BalancesURL)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshots(s.BalancesURL, raw)
}

func (s *HTTPSource) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = maxDocumentBytes
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("read %s: %w (limit %d bytes)", url, ErrDocumentTooLarge, limit)
	}
	return raw, nil
}
