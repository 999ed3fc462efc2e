/*
handlers.go - HTTP API handlers for the drift dashboard

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Reconciliation:
    GET    /api/reconciliation              Summary + filtered account table
    GET    /api/accounts/{id}               Account detail with running balances

  Runs:
    POST   /api/reconciliation/runs         Reconcile and record the summary
    GET    /api/reconciliation/runs         Recorded runs, newest first
    GET    /api/reconciliation/runs/{id}    One recorded run

  Imports:
    POST   /api/ledger/events               Append a ledger events document
    POST   /api/ledger/snapshots            Append a balance snapshots document

QUERY PARAMETERS:
  tolerance: missing means the configured default; negative or
             non-numeric means 0
  account:   case-insensitive substring of the account id
  status:    all | in-balance | minor-drift | material-mismatch

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Source: where the ledger collections come from
  - Importer / Runs: optional, nil when the source is read-only
  - Metrics, Logger

  Every request reloads both collections and recomputes from scratch.
  Nothing derived from the ledger is cached between requests.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid filter or document
  - 404: Unknown account or run
  - 501: Imports or run history not available for this source
  - 503: Ledger data unavailable (overall = "unavailable")
  - 500: Internal errors

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Periodic runs through RecordRun
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-drift/drift"
	"github.com/warp/ledger-drift/ledger"
	"github.com/warp/ledger-drift/source"
)

// maxImportBytes bounds an uploaded document.
const maxImportBytes = 32 << 20

// errRunsUnsupported is returned when no run history is configured.
var errRunsUnsupported = errors.New("run history requires the sqlite store")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// RunStore persists reconciliation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run drift.Run) error
	ListRuns(ctx context.Context, limit int) ([]drift.Run, error)
	GetRun(ctx context.Context, id string) (*drift.Run, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Source   ledger.Source
	Importer ledger.Importer // nil when the source is read-only
	Runs     RunStore        // nil when run history is disabled

	Metrics          *Metrics
	Logger           zerolog.Logger
	DefaultTolerance decimal.Decimal
}

// NewHandler creates a handler reading from src. If src also implements
// ledger.Importer or RunStore those features are enabled.
func NewHandler(src ledger.Source, metrics *Metrics, logger zerolog.Logger) *Handler {
	h := &Handler{
		Source:           src,
		Metrics:          metrics,
		Logger:           logger,
		DefaultTolerance: drift.DefaultTolerance(),
	}
	if imp, ok := src.(ledger.Importer); ok {
		h.Importer = imp
	}
	if runs, ok := src.(RunStore); ok {
		h.Runs = runs
	}
	return h
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Report is one complete reconciliation of the ledger.
type Report struct {
	Tolerance decimal.Decimal
	Accounts  []drift.Account
	Summary   drift.Summary
}

// Reconcile loads both collections and runs the engine. Failures to load
// wrap ledger.ErrSourceUnavailable.
func (h *Handler) Reconcile(ctx context.Context, tolerance decimal.Decimal) (Report, error) {
	start := time.Now()
	tolerance = drift.ClampTolerance(tolerance)

	ds, err := source.Load(ctx, h.Source)
	if err != nil {
		h.Metrics.ObserveFailure(errors.Is(err, ledger.ErrSourceUnavailable))
		return Report{}, err
	}

	accounts := drift.ReconcileAll(ds.Events, ds.Snapshots, tolerance)
	summary := drift.Summarize(accounts)
	h.Metrics.ObserveReconciliation(summary, time.Since(start))

	return Report{Tolerance: tolerance, Accounts: accounts, Summary: summary}, nil
}

// RecordRun reconciles and writes the summary to run history.
func (h *Handler) RecordRun(ctx context.Context, tolerance decimal.Decimal) (drift.Run, error) {
	if h.Runs == nil {
		return drift.Run{}, errRunsUnsupported
	}

	report, err := h.Reconcile(ctx, tolerance)
	if err != nil {
		return drift.Run{}, err
	}

	run := drift.NewRun(report.Summary, report.Tolerance)
	if err := h.Runs.SaveRun(ctx, run); err != nil {
		return drift.Run{}, fmt.Errorf("record run: %w", err)
	}
	h.Metrics.ObserveRunRecorded()
	return run, nil
}

func (h *Handler) tolerance(r *http.Request) decimal.Decimal {
	return drift.ParseTolerance(r.URL.Query().Get("tolerance"), h.DefaultTolerance)
}

// GetReconciliation returns the fleet summary and the filtered account list.
// GET /api/reconciliation?tolerance=5&account=&status=all
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	status, err := drift.ParseStatusFilter(query.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status filter", err)
		return
	}

	report, err := h.Reconcile(r.Context(), h.tolerance(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	visible := drift.Filter(report.Accounts, query.Get("account"), status)

	writeJSON(w, http.StatusOK, ReconciliationResponse{
		Tolerance: Number(report.Tolerance),
		Summary:   ToSummaryDTO(report.Summary),
		Accounts:  ToAccountDTOs(visible),
	})
}

// GetAccount returns one account with its replayed events.
// GET /api/accounts/{id}?tolerance=5
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	report, err := h.Reconcile(r.Context(), h.tolerance(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	acc, err := drift.Find(report.Accounts, accountID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ToAccountDetailDTO(acc))
}

// =============================================================================
// RUN HISTORY
// =============================================================================

// CreateRun reconciles now and records the summary.
// POST /api/reconciliation/runs?tolerance=5
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.RecordRun(r.Context(), h.tolerance(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.Logger.Info().
		Str("run_id", run.ID).
		Str("overall", string(run.Summary.Overall)).
		Int("total", run.Summary.Total).
		Msg("reconciliation run recorded")

	writeJSON(w, http.StatusCreated, ToRunDTO(run))
}

// ListRuns returns recorded runs, newest first.
// GET /api/reconciliation/runs?limit=20
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		h.writeDomainError(w, r, errRunsUnsupported)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", fmt.Errorf("limit must be a non-negative integer, got %q", s))
			return
		}
		limit = n
	}

	runs, err := h.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, ToRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetRun returns one recorded run.
// GET /api/reconciliation/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		h.writeDomainError(w, r, errRunsUnsupported)
		return
	}

	run, err := h.Runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToRunDTO(*run))
}

// =============================================================================
// IMPORTS
// =============================================================================

// ImportEvents appends a ledger events document.
// POST /api/ledger/events
func (h *Handler) ImportEvents(w http.ResponseWriter, r *http.Request) {
	if h.Importer == nil {
		h.writeDomainError(w, r, ledger.ErrImportUnsupported)
		return
	}

	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	events, err := source.DecodeEvents("request body", raw)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Importer.ImportEvents(r.Context(), events); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.Logger.Info().Int("count", len(events)).Msg("ledger events imported")
	writeJSON(w, http.StatusCreated, ImportResponse{Imported: len(events)})
}

// ImportSnapshots appends a balance snapshots document.
// POST /api/ledger/snapshots
func (h *Handler) ImportSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.Importer == nil {
		h.writeDomainError(w, r, ledger.ErrImportUnsupported)
		return
	}

	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	snapshots, err := source.DecodeSnapshots("request body", raw)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Importer.ImportSnapshots(r.Context(), snapshots); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.Logger.Info().Int("count", len(snapshots)).Msg("balance snapshots imported")
	writeJSON(w, http.StatusCreated, ImportResponse{Imported: len(snapshots)})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness. It does not touch the ledger source.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrSourceUnavailable):
		h.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("ledger data unavailable")
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   drift.OverallUnavailable.Label(),
			Details: err.Error(),
			Overall: string(drift.OverallUnavailable),
		})
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, ledger.ErrImportUnsupported), errors.Is(err, errRunsUnsupported):
		writeError(w, http.StatusNotImplemented, "Not supported by the configured source", err)
	default:
		h.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
