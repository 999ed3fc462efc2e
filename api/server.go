/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog request logging (with the request id)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/reconciliation/*   Reconciliation report and run history
  /api/accounts/{id}      Account drill-down
  /api/ledger/*           Document imports (importable sources only)
  /healthz                Liveness
  /metrics                Prometheus

SECURITY NOTE:
  No authentication middleware. The API is read-mostly and intended to sit
  behind the same gateway as the ledger it reads.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// allowedOrigins configures CORS; empty means any origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Reconciliation routes
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/", h.GetReconciliation)
			r.Get("/runs", h.ListRuns)
			r.Post("/runs", h.CreateRun)
			r.Get("/runs/{id}", h.GetRun)
		})

		// Account routes
		r.Get("/accounts/{id}", h.GetAccount)

		// Import routes
		r.Route("/ledger", func(r chi.Router) {
			r.Post("/events", h.ImportEvents)
			r.Post("/snapshots", h.ImportSnapshots)
		})
	})

	return r
}
