package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Open databases
// 2. Build source, store and service
// 3. Register jobs
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(ctx, container, cfg, log); err != nil {
		_ = container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		_ = container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, jobs, nil
}
