/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ledger drift dashboard API.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment, apply flag overrides, validate
  2. Build the logger
  3. Select the ledger source (file, sqlite or url)
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start the scheduler (when SCHEDULE_INTERVAL > 0)
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or drift.db)
           Use ":memory:" for in-memory database
  -source  file | sqlite | url (default: SOURCE or file)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Reconcile the sample documents in the working directory
  ./server

  # Serve documents imported into sqlite, reconciling every 10 minutes
  SOURCE=sqlite SCHEDULE_INTERVAL=10m ./server -db="./data/drift.db"

ENVIRONMENT:
  See config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/ledger-drift/api"
	"github.com/warp/ledger-drift/config"
	"github.com/warp/ledger-drift/ledger"
	"github.com/warp/ledger-drift/source"
	"github.com/warp/ledger-drift/store/sqlite"
)

func main() {
	// Environment, then flag overrides, then validation
	cfg, err := config.LoadArgs(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger(os.Stderr)

	metrics := api.NewMetrics()

	src, closeSource, err := openSource(cfg, metrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize ledger source")
	}
	defer closeSource()

	// Initialize handler
	handler := api.NewHandler(src, metrics, logger)
	handler.DefaultTolerance = cfg.Tolerance()

	// Create router
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	scheduler := api.NewReconciliationScheduler(handler, cfg.ScheduleInterval)
	scheduler.Start()

	// Start server in goroutine
	go func() {
		logger.Info().
			Int("port", cfg.Port).
			Str("source", cfg.Source).
			Str("tolerance", handler.DefaultTolerance.String()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	logger.Info().Msg("server stopped")
}

// openSource builds the configured ledger source. The returned func
// releases it.
func openSource(cfg config.Config, metrics *api.Metrics, logger zerolog.Logger) (ledger.Source, func(), error) {
	switch cfg.Source {
	case config.SourceSQLite:
		store, err := sqlite.New(cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := metrics.RegisterDB(store.DB(), "drift"); err != nil {
			logger.Warn().Err(err).Msg("database metrics not registered")
		}
		return store, func() { store.Close() }, nil
	case config.SourceURL:
		return source.NewHTTPSource(cfg.LedgerURL, cfg.BalancesURL), func() {}, nil
	default:
		return source.NewFileSource(cfg.LedgerPath, cfg.BalancesPath), func() {}, nil
	}
}
