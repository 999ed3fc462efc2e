package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/warp/ledger-drift/ledger"
	"github.com/warp/ledger-drift/mocks"
	"github.com/warp/ledger-drift/source"
)

const ledgerDoc = `[
  {"account_id":"A1","timestamp":"2024-01-01T00:00:00Z","type":"earn","points_delta":100,"description":"signup bonus"},
  {"account_id":"A1","timestamp":"2024-01-02T00:00:00Z","type":"redeem","points_delta":-20,"description":"coffee"},
  {"account_id":"B7","timestamp":"broken","type":"earn","points_delta":"oops"}
]`

const balancesDoc = `[
  {"account_id":"A1","snapshot_balance":85},
  {"account_id":"C3","snapshot_balance":"12"}
]`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// =============================================================================
// DOCUMENT DECODING
// =============================================================================

func TestDecodeEvents(t *testing.T) {
	events, err := source.DecodeEvents("ledger.json", []byte(ledgerDoc))
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "A1", events[0].AccountID)
	assert.Equal(t, "signup bonus", events[0].Description)
	assert.True(t, events[1].PointsDelta.Value.Equal(decimal.NewFromInt(-20)))
	assert.True(t, events[2].PointsDelta.IsZero())
	assert.Equal(t, "", events[2].Description)
}

func TestDecodeEvents_EmptyArray(t *testing.T) {
	events, err := source.DecodeEvents("ledger.json", []byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestDecodeEvents_RejectsWrongShape(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "object instead of array", doc: `{"account_id":"A1"}`},
		{name: "array of scalars", doc: `[1, 2, 3]`},
		{name: "mixed array", doc: `[{"account_id":"A1"}, "x"]`},
		{name: "not json", doc: `account_id,points`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.DecodeEvents("ledger.json", []byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ledger.ErrInvalidDocument))

			var docErr *ledger.DocumentError
			require.True(t, errors.As(err, &docErr))
			assert.Equal(t, "ledger.json", docErr.Source)
		})
	}
}

func TestDecodeSnapshots(t *testing.T) {
	snapshots, err := source.DecodeSnapshots("balances.json", []byte(balancesDoc))
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.True(t, snapshots[1].SnapshotBalance.Value.Equal(decimal.NewFromInt(12)))

	_, err = source.DecodeSnapshots("balances.json", []byte(`"nope"`))
	assert.True(t, errors.Is(err, ledger.ErrInvalidDocument))
}

// =============================================================================
// FILE SOURCE
// =============================================================================

func TestFileSource_Load(t *testing.T) {
	src := source.NewFileSource(
		writeTemp(t, "sample-ledger.json", ledgerDoc),
		writeTemp(t, "sample-balances.json", balancesDoc),
	)

	ds, err := source.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, ds.Events, 3)
	assert.Len(t, ds.Snapshots, 2)
}

func TestFileSource_MissingFileIsUnavailable(t *testing.T) {
	src := source.NewFileSource(
		writeTemp(t, "sample-ledger.json", ledgerDoc),
		filepath.Join(t.TempDir(), "missing.json"),
	)

	ds, err := source.Load(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrSourceUnavailable))
	assert.Nil(t, ds.Events, "no partial dataset")
}

// =============================================================================
// HTTP SOURCE
// =============================================================================

func TestHTTPSource_Load(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sample-ledger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ledgerDoc))
	})
	mux.HandleFunc("/sample-balances.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(balancesDoc))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := source.NewHTTPSource(srv.URL+"/sample-ledger.json", srv.URL+"/sample-balances.json")

	ds, err := source.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, ds.Events, 3)
	assert.Len(t, ds.Snapshots, 2)
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	src := source.NewHTTPSource(srv.URL+"/ledger", srv.URL+"/balances")

	_, err := source.Load(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestHTTPSource_DocumentTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ledgerDoc))
	}))
	defer srv.Close()

	// GIVEN: a limit one byte short of the document
	src := source.NewHTTPSource(srv.URL+"/ledger", srv.URL+"/balances")
	src.MaxBytes = int64(len(ledgerDoc)) - 1

	// WHEN: fetching
	_, err := src.Events(context.Background())

	// THEN: the size is reported instead of a truncated parse
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrDocumentTooLarge))
	assert.False(t, errors.Is(err, ledger.ErrInvalidDocument))

	// AND: a document exactly at the limit is accepted
	src.MaxBytes = int64(len(ledgerDoc))
	events, err := src.Events(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoad_EitherSideFailing(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name         string
		eventsErr    error
		snapshotsErr error
	}{
		{name: "events fail", eventsErr: boom},
		{name: "snapshots fail", snapshotsErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			src := mocks.NewMockSource(ctrl)
			src.EXPECT().Events(gomock.Any()).Return([]ledger.Event{{AccountID: "A1"}}, tt.eventsErr).AnyTimes()
			src.EXPECT().Snapshots(gomock.Any()).Return([]ledger.Snapshot{{AccountID: "A1"}}, tt.snapshotsErr).AnyTimes()

			ds, err := source.Load(context.Background(), src)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ledger.ErrSourceUnavailable))
			assert.True(t, errors.Is(err, boom))
			assert.Empty(t, ds.Events)
			assert.Empty(t, ds.Snapshots)
		})
	}
}

func TestLoad_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Events(gomock.Any()).Return([]ledger.Event{{AccountID: "A1"}}, nil)
	src.EXPECT().Snapshots(gomock.Any()).Return([]ledger.Snapshot{{AccountID: "B1"}}, nil)

	ds, err := source.Load(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, "A1", ds.Events[0].AccountID)
	assert.Equal(t, "B1", ds.Snapshots[0].AccountID)
}
