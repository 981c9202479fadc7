// Package bootstrap provides dependency initialization for wavsplit.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/wavsplit/internal/config"
	"github.com/maauso/wavsplit/internal/job"
	"github.com/maauso/wavsplit/internal/storage"
)

// Dependencies holds all initialized dependencies for a split run.
type Dependencies struct {
	SplitService *job.SplitService
}

// NewDependencies creates and initializes all dependencies from a validated config.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []job.Option{
		job.WithSplitOpts(cfg.SplitOpts()),
		job.WithSimulate(cfg.Simulate),
	}
	if cfg.S3Enabled() {
		opts = append(opts, job.WithPublish(cfg.S3Prefix))
	}

	return &Dependencies{
		SplitService: job.NewSplitService(store, logger, opts...),
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, cfg.OutputDir, cfg.S3Config())
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Debug("S3 publication configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Debug("local storage configured",
		slog.String("output_dir", cfg.OutputDir),
	)
	return localStore, nil
}
