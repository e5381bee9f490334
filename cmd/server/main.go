/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the compensation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment), apply flag overrides
  2. Build the zap logger
  3. Initialize SQLite store
  4. Create API handler with service, aggregator and country directory
  5. Optionally seed reference data
  6. Start recalculation scheduler (when RECALC_INTERVAL > 0)
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database
  -seed    Reset and load the reference data set on start

ENVIRONMENT:
  APP_PORT, DB_PATH, LOG_LEVEL, DEFAULT_CURRENCY, FALLBACK_TAX_RATE,
  PAGE_SIZE, CORS_ORIGINS, SEED_ON_START, RECALC_INTERVAL

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/compensation.db"

  # Run with in-memory database and demo data
  ./server -db=":memory:" -seed

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment settings
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/compensation-engine/api"
	"github.com/warp/compensation-engine/config"
	"github.com/warp/compensation-engine/observability"
	"github.com/warp/compensation-engine/payroll"
	"github.com/warp/compensation-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	seed := flag.Bool("seed", cfg.App.SeedOnStart, "reset and load reference data on start")
	flag.Parse()
	cfg.App.Port = *port
	cfg.Database.Path = *dbPath

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, payroll.NewCountryDirectory(), logger)
	handler.Service.Normalizer.DefaultCurrency = cfg.Compensation.DefaultCurrency
	handler.Service.Calculator.FallbackRate = cfg.Compensation.FallbackTaxRate
	handler.PageSize = cfg.Compensation.PageSize

	if *seed {
		result, err := handler.LoadSeed(context.Background())
		if err != nil {
			logger.Fatal("failed to seed database", zap.Error(err))
		}
		logger.Info("seed loaded", zap.Int("tax_rates", result.TaxRates), zap.Int("employees", result.Employees))
	}

	scheduler := api.NewRecalculationScheduler(handler.Service, cfg.Compensation.RecalcInterval, logger)
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      api.NewRouter(handler, cfg.App.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("db", cfg.Database.Path),
			zap.String("default_currency", cfg.Compensation.DefaultCurrency))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
