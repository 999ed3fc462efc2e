/*
Package sqlite provides a SQLite-backed ledger source and run history.

PURPOSE:
  Holds imported ledger documents so the dashboard and CLI can reconcile
  without re-reading files, and keeps the history of recorded
  reconciliation runs.

INTERFACES IMPLEMENTED:
  ledger.Source:   events and snapshots in import order
  ledger.Importer: append documents atomically
  ImportDataset:   both documents in one transaction, optionally replacing

APPEND-ONLY ENFORCEMENT:
  The ledger tables are append-only:
  - No UPDATE statements on ledger_events or balance_snapshots
  - Rows are removed only by Reset
  - A corrected snapshot is imported as a new row; the later row wins

KEY TABLES:
  ledger_events:       Imported ledger entries, seq preserves input order
  balance_snapshots:   Imported snapshots, seq preserves input order
  reconciliation_runs: Recorded fleet summaries

RAW VALUES:
  points_delta and snapshot_balance are stored as the raw JSON they were
  imported from, so reading them back applies the same coercion policy as
  decoding the original document.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, which also
  keeps ":memory:" databases alive for the life of the store.

USAGE:
  store, err := sqlite.New("./drift.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  accounts := drift.ReconcileAll(events, snapshots, drift.DefaultTolerance())

SEE ALSO:
  - ledger/source.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-drift/drift"
	"github.com/warp/ledger-drift/ledger"
	"github.com/warp/ledger-drift/source"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements ledger.Source, ledger.Importer and the run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the connection pool for stats collection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Ledger events (append-only, seq is input order)
	CREATE TABLE IF NOT EXISTS ledger_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		type TEXT NOT NULL,
		points_delta TEXT,
		description TEXT NOT NULL DEFAULT '',
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_events_account
		ON ledger_events(account_id, seq);

	-- Balance snapshots (append-only, last row per account wins)
	CREATE TABLE IF NOT EXISTS balance_snapshots (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		snapshot_balance TEXT,
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_balance_snapshots_account
		ON balance_snapshots(account_id, seq);

	-- Reconciliation runs
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		tolerance TEXT NOT NULL,
		total INTEGER NOT NULL,
		in_balance INTEGER NOT NULL,
		minor_drift INTEGER NOT NULL,
		material_mismatch INTEGER NOT NULL,
		overall TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_created
		ON reconciliation_runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// LEDGER SOURCE (ledger.Source interface)
// =============================================================================

// Events returns all imported events in import order.
func (s *Store) Events(ctx context.Context) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, timestamp, type, points_delta, description
		FROM ledger_events
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger events: %w", err)
	}
	defer rows.Close()

	events := []ledger.Event{}
	for rows.Next() {
		var (
			e     ledger.Event
			delta sql.NullString
		)
		if err := rows.Scan(&e.AccountID, &e.Timestamp, &e.Type, &delta, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan ledger event: %w", err)
		}
		e.PointsDelta = pointsFromColumn(delta)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Snapshots returns all imported snapshots in import order.
func (s *Store) Snapshots(ctx context.Context) ([]ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, snapshot_balance
		FROM balance_snapshots
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []ledger.Snapshot{}
	for rows.Next() {
		var (
			snap    ledger.Snapshot
			balance sql.NullString
		)
		if err := rows.Scan(&snap.AccountID, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance snapshot: %w", err)
		}
		snap.SnapshotBalance = pointsFromColumn(balance)
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// =============================================================================
// IMPORTS (ledger.Importer interface)
// =============================================================================

// ImportEvents appends events atomically: either all rows land or none.
func (s *Store) ImportEvents(ctx context.Context, events []ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx execer) error {
		return insertEvents(ctx, tx, events)
	})
}

// ImportSnapshots appends snapshots atomically.
func (s *Store) ImportSnapshots(ctx context.Context, snapshots []ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx execer) error {
		return insertSnapshots(ctx, tx, snapshots)
	})
}

// ImportDataset appends both collections in one transaction. With reset,
// previously imported ledger rows are cleared in the same transaction, so
// a failure leaves the database as it was.
func (s *Store) ImportDataset(ctx context.Context, ds source.Dataset, reset bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx execer) error {
		if reset {
			if err := clearLedger(ctx, tx); err != nil {
				return err
			}
		}
		if err := insertEvents(ctx, tx, ds.Events); err != nil {
			return err
		}
		return insertSnapshots(ctx, tx, ds.Snapshots)
	})
}

func insertEvents(ctx context.Context, tx execer, events []ledger.Event) error {
	now := time.Now().UTC().Format(timeLayout)
	for i, e := range events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_events (account_id, timestamp, type, points_delta, description, imported_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.AccountID, e.Timestamp, e.Type, pointsColumn(e.PointsDelta), e.Description, now)
		if err != nil {
			return fmt.Errorf("failed to import event %d: %w", i, err)
		}
	}
	return nil
}

func insertSnapshots(ctx context.Context, tx execer, snapshots []ledger.Snapshot) error {
	now := time.Now().UTC().Format(timeLayout)
	for i, snap := range snapshots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO balance_snapshots (account_id, snapshot_balance, imported_at)
			VALUES (?, ?, ?)
		`, snap.AccountID, pointsColumn(snap.SnapshotBalance), now)
		if err != nil {
			return fmt.Errorf("failed to import snapshot %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx execer) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// RECONCILIATION RUNS STORE
// =============================================================================

// SaveRun records a reconciliation run.
func (s *Store) SaveRun(ctx context.Context, run drift.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_runs (id, tolerance, total, in_balance, minor_drift,
			material_mismatch, overall, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Tolerance.String(),
		run.Summary.Total,
		run.Summary.InBalance,
		run.Summary.MinorDrift,
		run.Summary.MaterialMismatch,
		string(run.Summary.Overall),
		run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]drift.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tolerance, total, in_balance, minor_drift, material_mismatch, overall, created_at
		FROM reconciliation_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation runs: %w", err)
	}
	defer rows.Close()

	runs := []drift.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a run by id, or ledger.ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*drift.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tolerance, total, in_balance, minor_drift, material_mismatch, overall, created_at
		FROM reconciliation_runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (drift.Run, error) {
	var (
		run       drift.Run
		tolerance string
		overall   string
		createdAt string
	)

	err := row.Scan(
		&run.ID, &tolerance,
		&run.Summary.Total, &run.Summary.InBalance, &run.Summary.MinorDrift, &run.Summary.MaterialMismatch,
		&overall, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan reconciliation run: %w", err)
	}

	run.Tolerance, _ = decimal.NewFromString(tolerance)
	run.Summary.Overall = drift.Overall(overall)
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return run, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears imported ledger data. Run history is kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx execer) error {
		return clearLedger(ctx, tx)
	})
}

func clearLedger(ctx context.Context, tx execer) error {
	for _, table := range []string{"ledger_events", "balance_snapshots"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// pointsColumn is the stored form of a points value: the raw JSON it came
// from, its decimal text when built in code, or NULL when missing.
func pointsColumn(p ledger.Points) sql.NullString {
	if raw := p.Raw(); len(raw) > 0 {
		return sql.NullString{String: string(raw), Valid: true}
	}
	if p.Valid() {
		return sql.NullString{String: p.Value.String(), Valid: true}
	}
	return sql.NullString{}
}

func pointsFromColumn(col sql.NullString) ledger.Points {
	if !col.Valid {
		return ledger.Points{}
	}
	return ledger.PointsFromRaw([]byte(col.String))
}
