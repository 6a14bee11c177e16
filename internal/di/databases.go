package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/config"
	"github.com/aristath/scorecard/internal/database"
)

// InitializeDatabases opens the databases the configured source needs
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	if cfg.Snapshot.Source != config.SourceSQLite {
		return container, nil
	}

	// The snapshot database is owned by whoever publishes constituents
	db, err := database.New(database.Config{
		Path:    cfg.Snapshot.DB,
		Profile: database.ProfileReadOnly,
		Name:    "snapshot",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot database: %w", err)
	}
	container.SourceDB = db

	log.Info().
		Str("path", db.Path()).
		Str("table", cfg.Snapshot.Table).
		Msg("Snapshot database opened")

	return container, nil
}
