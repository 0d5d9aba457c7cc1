// ===============================
// FILE: internal/repositories/collection.go
// ===============================

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"threadhub/internal/database"
)

// RepositoryConfig tunes repository behavior.
type RepositoryConfig struct {
	EnableQueryLogging bool          `json:"enable_query_logging"`
	SlowQueryThreshold time.Duration `json:"slow_query_threshold"`
}

// DefaultRepositoryConfig returns sensible defaults.
func DefaultRepositoryConfig() *RepositoryConfig {
	return &RepositoryConfig{
		EnableQueryLogging: true,
		SlowQueryThreshold: 100 * time.Millisecond,
	}
}

// Collection wires all repositories over one database manager.
type Collection struct {
	Threads       ThreadRepository
	Content       ContentRepository
	Votes         VoteRepository
	Reviews       ReviewRepository
	Notifications NotificationRepository
	Users         UserRepository

	db     *database.Manager
	logger *zap.Logger
}

// NewCollection builds the repository collection.
func NewCollection(db *database.Manager, logger *zap.Logger, config *RepositoryConfig) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if config == nil {
		config = DefaultRepositoryConfig()
	}

	collection := &Collection{
		Threads:       NewThreadRepository(db, logger),
		Content:       NewContentRepository(db, logger),
		Votes:         NewVoteRepository(db, logger),
		Reviews:       NewReviewRepository(db, logger),
		Notifications: NewNotificationRepository(db, logger),
		Users:         NewUserRepository(db, logger),
		db:            db,
		logger:        logger,
	}

	logger.Info("repository collection initialized",
		zap.Bool("query_logging", config.EnableQueryLogging),
		zap.Duration("slow_query_threshold", config.SlowQueryThreshold),
	)

	return collection, nil
}

// WithTransaction runs fn in one transaction spanning multiple
// repositories.
func (c *Collection) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	base := NewBaseRepository(c.db, c.logger)
	return base.WithTransaction(ctx, fn)
}

// NewTestCollection builds a collection with a no-op logger for tests.
func NewTestCollection(db *database.Manager) (*Collection, error) {
	return NewCollection(db, zap.NewNop(), DefaultRepositoryConfig())
}
