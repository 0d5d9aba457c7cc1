// ===============================
// FILE: internal/database/database.go
// ===============================

package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"threadhub/internal/config"
)

// InitDB connects, waits for the database to become healthy, and runs
// migrations.
func InitDB(cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	manager, err := NewManager(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if err := waitForHealth(manager, logger); err != nil {
		manager.Close()
		return nil, err
	}

	migrationsPath, err := resolveMigrationsPath(cfg.Database.MigrationsPath)
	if err != nil {
		logger.Warn("migrations directory not found, skipping migrations",
			zap.String("configured_path", cfg.Database.MigrationsPath),
		)
		return manager, nil
	}

	if err := manager.Migrate(migrationsPath); err != nil {
		manager.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return manager, nil
}

// waitForHealth retries the health check with exponential backoff so
// a database still starting up does not fail the boot.
func waitForHealth(manager *Manager, logger *zap.Logger) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 2 * time.Minute

	attempt := 0
	operation := func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := manager.Health(ctx); err != nil {
			logger.Warn("database not healthy yet",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("database never became healthy: %w", err)
	}

	logger.Info("database healthy", zap.Int("attempts", attempt))
	return nil
}

// resolveMigrationsPath tries the configured path and common
// fallbacks relative to the working directory.
func resolveMigrationsPath(configured string) (string, error) {
	candidates := []string{configured, "migrations", "./migrations", "../migrations"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Clean(candidate), nil
		}
	}
	return "", fmt.Errorf("no migrations directory found")
}
