package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/ledger-drift/drift"
)

// Reconciliation outcomes.
const (
	outcomeOK          = "ok"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// Metrics exposes reconciliation results to Prometheus. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	reg      *prometheus.Registry
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	accounts *prometheus.GaugeVec
	overall  *prometheus.GaugeVec
	recorded prometheus.Counter
}

// NewMetrics builds the collectors on a private registry, with the Go and
// process collectors alongside.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_drift_reconciliations_total",
				Help: "Number of reconciliations by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_drift_reconciliation_duration_seconds",
				Help:    "Time to load the ledger and reconcile every account",
				Buckets: prometheus.DefBuckets,
			},
		),
		accounts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledger_drift_accounts",
				Help: "Accounts per drift status in the latest reconciliation",
			},
			[]string{"status"},
		),
		overall: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledger_drift_fleet_status",
				Help: "1 for the current fleet-wide status, 0 for the others",
			},
			[]string{"overall"},
		),
		recorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_drift_runs_recorded_total",
				Help: "Number of reconciliation runs written to history",
			},
		),
	}

	reg.MustRegister(
		m.runs, m.duration, m.accounts, m.overall, m.recorded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterDB exposes connection pool stats for the store database.
func (m *Metrics) RegisterDB(db *sql.DB, dbName string) error {
	if m == nil {
		return nil
	}
	return m.reg.Register(collectors.NewDBStatsCollector(db, dbName))
}

// ObserveReconciliation records a successful reconciliation.
func (m *Metrics) ObserveReconciliation(summary drift.Summary, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.runs.WithLabelValues(outcomeOK).Inc()
	m.duration.Observe(elapsed.Seconds())

	m.accounts.WithLabelValues(string(drift.StatusInBalance)).Set(float64(summary.InBalance))
	m.accounts.WithLabelValues(string(drift.StatusMinorDrift)).Set(float64(summary.MinorDrift))
	m.accounts.WithLabelValues(string(drift.StatusMaterialMismatch)).Set(float64(summary.MaterialMismatch))
	m.setOverall(summary.Overall)
}

// ObserveFailure records a reconciliation that could not complete.
func (m *Metrics) ObserveFailure(unavailable bool) {
	if m == nil {
		return
	}
	if unavailable {
		m.runs.WithLabelValues(outcomeUnavailable).Inc()
		m.setOverall(drift.OverallUnavailable)
		return
	}
	m.runs.WithLabelValues(outcomeError).Inc()
}

// ObserveRunRecorded counts a run written to history.
func (m *Metrics) ObserveRunRecorded() {
	if m == nil {
		return
	}
	m.recorded.Inc()
}

func (m *Metrics) setOverall(current drift.Overall) {
	for _, o := range []drift.Overall{
		drift.OverallOK, drift.OverallWarn, drift.OverallFail, drift.OverallIdle, drift.OverallUnavailable,
	} {
		v := 0.0
		if o == current {
			v = 1
		}
		m.overall.WithLabelValues(string(o)).Set(v)
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
