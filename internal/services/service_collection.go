// ===============================
// FILE: internal/services/service_collection.go
// ===============================

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"threadhub/internal/cache"
	"threadhub/internal/config"
	"threadhub/internal/database"
	"threadhub/internal/events"
	"threadhub/internal/repositories"
)

// ServiceCollection wires all services with their dependencies.
type ServiceCollection struct {
	ThreadService       ThreadService       `json:"-"`
	CommentService      CommentService      `json:"-"`
	VoteService         VoteService         `json:"-"`
	ReviewService       ReviewService       `json:"-"`
	NotificationService NotificationService `json:"-"`

	Repositories *repositories.Collection `json:"-"`

	Cache     cache.Cache       `json:"-"`
	EventBus  events.EventBus   `json:"-"`
	Logger    *zap.Logger       `json:"-"`
	Config    *config.Config    `json:"-"`
	DBManager *database.Manager `json:"-"`

	startTime   time.Time
	mu          sync.RWMutex
	initialized bool
}

// NewServiceCollection builds the service graph in dependency order:
// infrastructure, repositories, then services.
func NewServiceCollection(
	dbManager *database.Manager,
	cfg *config.Config,
	realtime RealtimePublisher,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sc := &ServiceCollection{
		DBManager: dbManager,
		Config:    cfg,
		Logger:    logger,
		startTime: time.Now(),
	}

	if err := sc.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("initialize infrastructure: %w", err)
	}
	if err := sc.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("initialize repositories: %w", err)
	}
	sc.initializeServices(realtime)

	if err := sc.EventBus.Start(); err != nil {
		return nil, fmt.Errorf("start event bus: %w", err)
	}

	sc.initialized = true
	logger.Info("service collection initialized")
	return sc, nil
}

func (sc *ServiceCollection) initializeInfrastructure() error {
	cacheInstance, err := cache.NewCache(sc.Config.Cache, sc.Logger)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	sc.Cache = cacheInstance
	sc.EventBus = events.NewInMemoryEventBus(events.DefaultBusConfig(), sc.Logger)
	return nil
}

func (sc *ServiceCollection) initializeRepositories() error {
	repos, err := repositories.NewCollection(sc.DBManager, sc.Logger, repositories.DefaultRepositoryConfig())
	if err != nil {
		return err
	}
	sc.Repositories = repos
	return nil
}

func (sc *ServiceCollection) initializeServices(realtime RealtimePublisher) {
	sc.ThreadService = NewThreadService(sc.Repositories, sc.EventBus, sc.Logger)
	sc.CommentService = NewCommentService(sc.Repositories, sc.EventBus, sc.Logger)
	sc.VoteService = NewVoteService(sc.Repositories, sc.EventBus, sc.Logger)
	sc.ReviewService = NewReviewService(sc.Repositories, sc.EventBus, sc.Logger)
	sc.NotificationService = NewNotificationService(sc.Repositories, sc.EventBus, realtime, sc.Logger)
}

// ===============================
// ACCESSORS
// ===============================

func (sc *ServiceCollection) GetThreadService() ThreadService             { return sc.ThreadService }
func (sc *ServiceCollection) GetCommentService() CommentService           { return sc.CommentService }
func (sc *ServiceCollection) GetVoteService() VoteService                 { return sc.VoteService }
func (sc *ServiceCollection) GetReviewService() ReviewService             { return sc.ReviewService }
func (sc *ServiceCollection) GetNotificationService() NotificationService { return sc.NotificationService }

// Uptime reports how long the collection has been running.
func (sc *ServiceCollection) Uptime() time.Duration {
	return time.Since(sc.startTime)
}

// Shutdown stops background components in reverse order.
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.initialized {
		return nil
	}
	sc.initialized = false

	if err := sc.EventBus.Stop(ctx); err != nil {
		sc.Logger.Warn("event bus shutdown failed", zap.Error(err))
	}
	if err := sc.Cache.Close(); err != nil {
		sc.Logger.Warn("cache shutdown failed", zap.Error(err))
	}

	sc.Logger.Info("service collection shut down")
	return nil
}
