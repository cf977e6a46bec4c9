package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/meetrelay/internal/chat"
	"github.com/Tyrowin/meetrelay/internal/pool"
	"github.com/Tyrowin/meetrelay/internal/server"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	log.Info("Starting meeting relay...")

	var store pool.Store
	if cfg.PoolDBPath != "" {
		badgerStore, err := pool.OpenBadgerStore(cfg.PoolDBPath, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := badgerStore.Close(); err != nil {
				log.Error("Error closing instance store", "error", err)
			}
		}()
		store = badgerStore
	}

	instances, err := pool.New(log, store)
	if err != nil {
		return fmt.Errorf("instance pool: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeperDone := instances.StartSweeper(ctx, cfg.LeaseSweepInterval, cfg.LeaseTTL)
	// Runs before the store is closed.
	defer func() {
		stop()
		<-sweeperDone
	}()

	hub := server.NewHub(cfg, chat.NewRegistry(log), log)
	go hub.Run()
	log.Info("Hub started and ready to manage WebSocket connections")

	handlers := server.NewHandlers(cfg, hub, instances, log)
	httpServer := server.CreateServer(cfg.Addr(), server.NewRouter(handlers))

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.StartServer(httpServer, log)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, log); err != nil {
		log.Warn("HTTP server did not shut down cleanly", "error", err)
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warn("Hub did not shut down cleanly", "error", err)
	}

	log.Info("Program stopped cleanly")
	return nil
}
