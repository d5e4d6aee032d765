package store

import (
	"context"
	"fmt"

	"cfs-go/internal/cfs"
	"cfs-go/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the store config type.
// root is the output directory for the filesystem store; the other backends ignore it.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig, root string, logger cfs.Logger) (cfs.Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			KeyPrefix:       cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, logger)
	case "filesystem", "":
		if root == "" {
			return nil, fmt.Errorf("filesystem store requires an output directory")
		}
		return NewFilesystemStore(root), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
