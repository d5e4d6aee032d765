package database

import (
	"fmt"
	"os"
	"path/filepath"

	"cfs-go/internal/cfs"
	"cfs-go/internal/config"
)

// NewRunLogFromConfig creates a RunLog implementation based on the database config type.
func NewRunLogFromConfig(cfg config.DatabaseConfig, hostID string) (cfs.RunLog, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, hostID+".db")
		return NewSQLiteRunLog(dbPath, nil, nil)
	case "memory":
		return NewSQLiteRunLog(":memory:", nil, nil)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
