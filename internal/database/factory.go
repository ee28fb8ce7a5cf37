package database

import (
	"fmt"
	"os"
	"path/filepath"

	"wombatdb/internal/config"
	"wombatdb/internal/wombat"
)

// NewStoreFromConfig creates a Store implementation based on the database config type.
// File-backed stores live at <data_dir>/<storeID>.db.
func NewStoreFromConfig(cfg config.DatabaseConfig, storeID string, logger wombat.Logger) (*SQLiteStore, error) {
	switch cfg.Type {
	case config.DatabaseSQLite:
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, storeID+".db"), logger)
	case config.DatabaseMemory:
		return NewSQLiteStore(":memory:", logger)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
