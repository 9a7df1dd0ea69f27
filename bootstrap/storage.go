package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"sentinel/config"
	"sentinel/storage"
)

// InitSQLite opens the alert and DLQ database. Returns nil without error
// when persistence is disabled.
func InitSQLite(cfg *config.Config, sugar *zap.SugaredLogger) (*storage.SQLite, error) {
	if !cfg.Storage.Enabled {
		sugar.Info("SQLite persistence disabled")
		return nil, nil
	}

	sqlite, err := storage.NewSQLite(cfg.DataPaths.SQLitePath, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}
	return sqlite, nil
}
