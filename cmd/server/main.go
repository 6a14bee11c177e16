// Package main is the entry point for the scorecard dashboard server.
// It loads a constituent snapshot, serves the scoring, ranking and
// similarity-map API over HTTP and reloads the snapshot on a schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/scorecard/internal/config"
	"github.com/aristath/scorecard/internal/di"
	"github.com/aristath/scorecard/internal/server"
	"github.com/aristath/scorecard/pkg/logger"
)

// initialLoadTimeout bounds the first snapshot load
const initialLoadTimeout = 2 * time.Minute

// main orchestrates startup:
// 1. Loads configuration (.env, CONFIG_FILE, environment)
// 2. Initializes logging
// 3. Wires the snapshot source, store, dashboard service and jobs
// 4. Loads the first snapshot; the server does not start without one
// 5. Starts the scheduler and the HTTP server
// 6. Waits for SIGINT/SIGTERM and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
		File:   cfg.LogFile,
	})
	logger.SetGlobalLogger(log)

	log = log.With().Str("instance", uuid.NewString()).Logger()
	log.Info().
		Str("source", cfg.Snapshot.Source).
		Int("port", cfg.Port).
		Msg("Starting scorecard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close snapshot database")
		}
	}()

	loadCtx, loadCancel := context.WithTimeout(ctx, initialLoadTimeout)
	snap, err := container.Store.Reload(loadCtx)
	loadCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load initial snapshot")
	}
	log.Info().
		Int("records", len(snap.Records)).
		Str("source", snap.Source).
		Msg("Initial snapshot loaded")

	container.Scheduler.Start()
	if jobs.SnapshotReload != nil {
		log.Info().Str("schedule", cfg.ReloadSchedule).Msg("Snapshot reload scheduled")
	}

	srvCfg := server.Config{
		Log:       log,
		LogFile:   cfg.LogFile,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Store:     container.Store,
		Service:   container.Service,
		Scheduler: container.Scheduler,
	}
	if container.SourceDB != nil {
		srvCfg.Database = container.SourceDB
	}
	srv := server.New(srvCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// Running jobs finish before the database closes
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
