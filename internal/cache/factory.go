package cache

import (
	"fmt"
	"path/filepath"

	"si-go/internal/config"
	"si-go/internal/database"
	"si-go/internal/si"
)

// NewStoreFromConfig creates a CacheStore implementation based on the cache
// config type. encryptor may be nil; only the file store supports one.
func NewStoreFromConfig(cfg config.CacheConfig, profile string, encryptor si.Encryptor) (si.CacheStore, error) {
	if encryptor != nil && cfg.Type != "file" {
		return nil, fmt.Errorf("encryption is only supported for the file cache, not %q", cfg.Type)
	}

	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file cache requires path to be set")
		}
		return NewFileSystemStore(cfg.Path, encryptor), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite cache requires data_dir to be set")
		}
		path := ":memory:"
		if cfg.DataDir != ":memory:" {
			path = filepath.Join(cfg.DataDir, "si.db")
		}
		store, err := database.NewSQLiteStore(path, profile)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite cache: %w", err)
		}
		return store, nil
	case "s3":
		store, err := NewS3Store(cfg, profile)
		if err != nil {
			return nil, fmt.Errorf("creating s3 cache: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
