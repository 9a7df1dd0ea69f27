package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sentinel/config"
)

// EnsureDataDirectories creates the data directory tree with proper
// permissions. This is a pre-flight check that runs before any service
// initialization.
func EnsureDataDirectories(cfg *config.Config, sugar *zap.SugaredLogger) error {
	directories := []string{
		cfg.DataPaths.DataDir,
		filepath.Dir(cfg.DataPaths.SQLitePath),
		filepath.Dir(cfg.DataPaths.AlertsPath),
		filepath.Dir(cfg.DataPaths.SummaryPath),
	}

	for _, dir := range directories {
		if dir == "." || dir == "" {
			continue
		}
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for %s: %w", dir, err)
		}
		if err := os.MkdirAll(absPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		// Verify write permissions
		testFile := filepath.Join(absPath, ".sentinel_write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			return fmt.Errorf("directory %s is not writable: %w", dir, err)
		}
		os.Remove(testFile)
	}

	sugar.Infow("Data directories ready", "base", cfg.DataPaths.DataDir)
	return nil
}
