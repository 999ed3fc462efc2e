/*
scheduler.go - Periodic reconciliation scheduler

PURPOSE:
  Reconciles the whole ledger on a fixed interval so drift shows up in
  metrics, logs and run history without anyone opening the dashboard.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Runs once immediately on start
  - Uses the handler's default tolerance
  - Records a run when the handler has run history, otherwise only
    updates metrics and logs the summary
  - A failed cycle is logged; the next tick tries again

USAGE:
  scheduler := NewReconciliationScheduler(handler, time.Hour)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Reconcile and RecordRun
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/ledger-drift/drift"
)

// ReconciliationScheduler runs reconciliations in the background.
type ReconciliationScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	// Timeout bounds one cycle. Zero means the check interval.
	Timeout time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationScheduler creates a scheduler. It is disabled when
// interval is not positive.
func NewReconciliationScheduler(handler *Handler, interval time.Duration) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		Handler:       handler,
		CheckInterval: interval,
		Enabled:       interval > 0,
	}
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	logger := rs.Handler.Logger.With().Str("component", "scheduler").Logger()

	if !rs.Enabled {
		logger.Info().Msg("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	logger.Info().Dur("interval", rs.CheckInterval).Msg("started")
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Handler.Logger.Info().Str("component", "scheduler").Msg("stopped")
	}
}

func (rs *ReconciliationScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow()

	for {
		select {
		case <-rs.ticker.C:
			rs.RunNow()
		case <-rs.stop:
			return
		}
	}
}

// RunNow performs one cycle synchronously and returns its summary.
func (rs *ReconciliationScheduler) RunNow() (drift.Summary, error) {
	timeout := rs.Timeout
	if timeout <= 0 {
		timeout = rs.CheckInterval
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	h := rs.Handler
	logger := h.Logger.With().Str("component", "scheduler").Logger()

	if h.Runs != nil {
		run, err := h.RecordRun(ctx, h.DefaultTolerance)
		if err != nil {
			logger.Error().Err(err).Msg("scheduled reconciliation failed")
			return drift.Summary{}, err
		}
		logSummary(logger.Info().Str("run_id", run.ID), run.Summary)
		return run.Summary, nil
	}

	report, err := h.Reconcile(ctx, h.DefaultTolerance)
	if err != nil {
		logger.Error().Err(err).Msg("scheduled reconciliation failed")
		return drift.Summary{}, err
	}
	logSummary(logger.Info(), report.Summary)
	return report.Summary, nil
}

func logSummary(event *zerolog.Event, s drift.Summary) {
	event.
		Str("overall", string(s.Overall)).
		Int("total", s.Total).
		Int("in_balance", s.InBalance).
		Int("minor_drift", s.MinorDrift).
		Int("material_mismatch", s.MaterialMismatch).
		Msg(s.Text())
}
