/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Initialize the store (SQLite, or in-process when DB_PATH=memory)
  3. Create the payroll service with the configured working-day calendar
  4. Start the month-end reconciliation scheduler
  5. Start the HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, waiting for a running reconciliation
  4. Close database connection

EXAMPLES:
  ./server -db="./data/payroll.db"
  ./server -db=":memory:" -port=3000
  WORKING_DAYS=weekdays ./server

SEE ALSO:
  - config/config.go: All settings
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize store
	txStore, closer, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer closer.Close()

	svc := payroll.NewService(txStore, payroll.WithCalendar(cfg.Calendar()))

	scheduler := api.NewReconciliationScheduler(svc, cfg.ReconcileSchedule)
	scheduler.Enabled = cfg.ReconcileEnabled
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	router := api.NewRouter(api.NewHandler(svc), cfg.CORSOrigins...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("[Server] Starting on http://localhost:%d (store=%s, working_days=%s)",
			cfg.Port, cfg.DBPath, cfg.WorkingDays)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[Server] Forced to shutdown: %v", err)
	}
	scheduler.Stop()

	log.Println("[Server] Stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(cfg *config.Config) (payroll.TxStore, io.Closer, error) {
	if cfg.UseMemoryStore() {
		log.Println("[Server] Using in-process store; data is lost on exit")
		return store.NewMemory(), nopCloser{}, nil
	}
	s, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
