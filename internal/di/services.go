package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/config"
	"github.com/aristath/scorecard/internal/modules/dashboard"
	"github.com/aristath/scorecard/internal/modules/snapshot"
)

// InitializeServices builds the snapshot source, store and dashboard service
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	source, err := NewSource(ctx, cfg.Snapshot, container)
	if err != nil {
		return err
	}

	container.Source = source
	container.Store = snapshot.NewStore(source, log)
	container.Service = dashboard.NewService(cfg.Clustering, cfg.TopN, log)

	log.Info().Str("source", source.Describe()).Msg("Snapshot source configured")
	return nil
}

// NewSource builds the snapshot source selected by cfg
func NewSource(ctx context.Context, cfg config.SnapshotConfig, container *Container) (snapshot.Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return snapshot.NewFileSource(cfg.Path), nil

	case config.SourceSQLite:
		if container == nil || container.SourceDB == nil {
			return nil, fmt.Errorf("sqlite source requires an open snapshot database")
		}
		source, err := snapshot.NewSQLiteSource(container.SourceDB.Conn(), cfg.Table)
		if err != nil {
			return nil, err
		}
		return source, nil

	case config.SourceS3:
		client, err := snapshot.NewS3Client(ctx, snapshot.S3Options{
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		source, err := snapshot.NewS3Source(client, cfg.S3.Bucket, cfg.S3.Key)
		if err != nil {
			return nil, err
		}
		return source, nil
	}

	return nil, fmt.Errorf("unknown snapshot source %q", cfg.Source)
}
