package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/infrastructure/config"
)

// NewArchive builds the configured archive, or returns nil when archiving is disabled.
// An unreachable bucket is logged and does not prevent startup.
func NewArchive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (report.Archive, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Driver {
	case "local":
		a, err := NewLocalArchive(cfg.Directory)
		if err != nil {
			return nil, err
		}
		logger.Info("Archiving reports to local directory", zap.String("directory", cfg.Directory))
		return a, nil
	case "", "s3":
		a, err := NewS3Archive(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := a.EnsureBucket(ctx); err != nil {
			logger.Warn("Archive bucket not ready", zap.String("bucket", a.Bucket()), zap.Error(err))
		}
		logger.Info("Archiving reports to S3", zap.String("bucket", a.Bucket()), zap.String("endpoint", cfg.Endpoint))
		return a, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}
