/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Resolve configuration (flags, then environment overrides)
  2. Initialize SQLite store
  3. Wire service, scheduler, and API handler
  4. Start the accrual scheduler (explicit, never an import side effect)
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, waiting for an in-flight pass
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Override via environment
  ADDRESS=:3000 DATABASE_PATH=/var/lib/leave/leave.db ./server

SEE ALSO:
  - config.go: Configuration resolution
  - api/server.go: Router configuration
  - leave/scheduler.go: The daily accrual loop started here
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rightseat/leave-engine/api"
	"github.com/rightseat/leave-engine/leave"
	"github.com/rightseat/leave-engine/store/sqlite"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire the engine
	service := leave.NewService(store, store)
	scheduler := leave.NewScheduler(service, store, store, store)
	scheduler.CheckInterval = cfg.AccrualInterval

	// Create router
	handler := api.NewHandler(store, service, scheduler)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Start the daily accrual loop. The first pass runs immediately, so a
	// server that was down over a weekend catches up on boot.
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("[Server] Listening on %s", cfg.Address)
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

	// Keep going on a shutdown error so the deferred scheduler stop and
	// store close still run.
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[Server] Forced shutdown: %v", err)
	}

	log.Println("[Server] Stopped")
}
