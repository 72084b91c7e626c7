/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave ledger server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Read environment configuration, apply flag overrides
  2. Open the persistence store (jsonfile or sqlite)
  3. Load the ledger (seeding the sample roster on first run)
  4. Build engine, handler, router
  5. Start server with graceful shutdown

CONFIGURATION:
  LEAVE_PORT             HTTP port (default 8080)
  LEAVE_STORE            "jsonfile" or "sqlite" (default jsonfile)
  LEAVE_DATA_FILE        JSON data file path (default employees.json)
  LEAVE_DB_PATH          SQLite database path (default leave.db)
  LEAVE_PERSIST_HISTORY  Persist record history too (default false)
  Flags of the same names override the environment.

DURABILITY NOTE:
  By default only balances survive a restart; record history is in-memory
  unless LEAVE_PERSIST_HISTORY is set. This matches the persistence
  contract in leave/port.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - leave/engine.go: The engine being served
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/warp/leave-ledger/api"
	"github.com/warp/leave-ledger/leave"
	"github.com/warp/leave-ledger/store/jsonfile"
	"github.com/warp/leave-ledger/store/sqlite"
)

type config struct {
	Port           int    `env:"LEAVE_PORT" envDefault:"8080"`
	Store          string `env:"LEAVE_STORE" envDefault:"jsonfile"`
	DataFile       string `env:"LEAVE_DATA_FILE" envDefault:"employees.json"`
	DBPath         string `env:"LEAVE_DB_PATH" envDefault:"leave.db"`
	PersistHistory bool   `env:"LEAVE_PERSIST_HISTORY" envDefault:"false"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	// Flags override the environment.
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.Store, "store", cfg.Store, "persistence backend: jsonfile or sqlite")
	flag.StringVar(&cfg.DataFile, "data", cfg.DataFile, "JSON data file path (jsonfile store)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (sqlite store)")
	flag.BoolVar(&cfg.PersistHistory, "persist-history", cfg.PersistHistory, "persist record history, not just balances")
	flag.Parse()

	ctx := context.Background()

	port, snap, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	ledger := leave.NewLedgerFromSnapshot(snap)
	engine := leave.NewEngine(ledger, leave.DefaultCatalog(), port)
	engine.PersistHistory = cfg.PersistHistory

	handler := api.NewHandler(engine)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Leave ledger serving on http://localhost:%d (store: %s)", cfg.Port, cfg.Store)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openStore opens the configured backend and loads its snapshot, seeding
// the sample roster on first run.
func openStore(ctx context.Context, cfg config) (leave.Port, leave.Snapshot, func(), error) {
	switch cfg.Store {
	case "jsonfile":
		store := jsonfile.New(cfg.DataFile)
		snap, err := store.LoadOrSeed(ctx)
		if err != nil {
			return nil, leave.Snapshot{}, nil, err
		}
		return store, snap, func() {}, nil

	case "sqlite":
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, leave.Snapshot{}, nil, err
		}
		snap, err := store.Load(ctx)
		if err != nil {
			store.Close()
			return nil, leave.Snapshot{}, nil, err
		}
		if len(snap.Employees) == 0 {
			snap = jsonfile.DefaultSnapshot()
			if err := store.SaveSnapshot(ctx, snap); err != nil {
				store.Close()
				return nil, leave.Snapshot{}, nil, err
			}
		}
		return store, snap, func() { store.Close() }, nil

	default:
		return nil, leave.Snapshot{}, nil, fmt.Errorf("unknown store %q (want jsonfile or sqlite)", cfg.Store)
	}
}
