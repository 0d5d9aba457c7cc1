// ===============================
// FILE: internal/events/events.go
// ===============================

package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// Event is the interface every domain event implements.
type Event interface {
	GetEventID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetUserID() *int64
	GetMetadata() map[string]interface{}
}

// BaseEvent carries the fields shared by all events.
type BaseEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	UserID    *int64                 `json:"user_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func (e BaseEvent) GetEventID() string                  { return e.EventID }
func (e BaseEvent) GetEventType() string                { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time             { return e.Timestamp }
func (e BaseEvent) GetUserID() *int64                   { return e.UserID }
func (e BaseEvent) GetMetadata() map[string]interface{} { return e.Metadata }

// NewEventID returns a unique identifier for an event.
func NewEventID() string {
	id, err := uuid.NewV4()
	if err != nil {
		// Collisions here only affect log correlation.
		return fmt.Sprintf("evt_%d", time.Now().UnixNano())
	}
	return id.String()
}

// EventHandler processes one event.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	Name() string
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, event Event) error
}

func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error { return f.Fn(ctx, event) }
func (f EventHandlerFunc) Name() string                                  { return f.HandlerName }

// EventBus publishes events to subscribed handlers.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	PublishAsync(ctx context.Context, event Event)
	Subscribe(eventType string, handler EventHandler)
	SubscribePattern(pattern string, handler EventHandler)
	Start() error
	Stop(ctx context.Context) error
	Stats() BusStats
}

// BusStats reports bus activity counters.
type BusStats struct {
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Queued    int   `json:"queued"`
}

// BusConfig tunes the in-memory bus.
type BusConfig struct {
	QueueSize      int           `json:"queue_size"`
	Workers        int           `json:"workers"`
	HandlerTimeout time.Duration `json:"handler_timeout"`
}

// DefaultBusConfig returns sensible defaults.
func DefaultBusConfig() *BusConfig {
	return &BusConfig{
		QueueSize:      1024,
		Workers:        4,
		HandlerTimeout: 30 * time.Second,
	}
}

// ===============================
// IN-MEMORY BUS
// ===============================

type subscription struct {
	pattern string
	handler EventHandler
}

type eventMessage struct {
	ctx   context.Context
	event Event
}

type inMemoryEventBus struct {
	config *BusConfig
	logger *zap.Logger

	mu            sync.RWMutex
	subscriptions []subscription

	queue   chan eventMessage
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	statsMu sync.Mutex
	stats   BusStats
}

// NewInMemoryEventBus builds a worker-pool backed bus.
func NewInMemoryEventBus(config *BusConfig, logger *zap.Logger) EventBus {
	if config == nil {
		config = DefaultBusConfig()
	}
	return &inMemoryEventBus{
		config: config,
		logger: logger,
		queue:  make(chan eventMessage, config.QueueSize),
	}
}

func (b *inMemoryEventBus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("event bus already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	for i := 0; i < b.config.Workers; i++ {
		b.wg.Add(1)
		go b.worker(ctx, i)
	}
	b.started = true

	b.logger.Info("event bus started",
		zap.Int("workers", b.config.Workers),
		zap.Int("queue_size", b.config.QueueSize),
	)
	return nil
}

func (b *inMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = false
	b.cancel()
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus shutdown timed out: %w", ctx.Err())
	}
}

func (b *inMemoryEventBus) Subscribe(eventType string, handler EventHandler) {
	b.SubscribePattern(eventType, handler)
}

// SubscribePattern registers a handler for an exact event type or a
// prefix wildcard such as "comment.*".
func (b *inMemoryEventBus) SubscribePattern(pattern string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = append(b.subscriptions, subscription{pattern: pattern, handler: handler})
	b.logger.Debug("event handler subscribed",
		zap.String("pattern", pattern),
		zap.String("handler", handler.Name()),
	)
}

// Publish delivers the event synchronously to all matching handlers.
func (b *inMemoryEventBus) Publish(ctx context.Context, event Event) error {
	b.countPublished()
	var firstErr error
	for _, sub := range b.matching(event.GetEventType()) {
		if err := b.executeHandler(ctx, sub.handler, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishAsync enqueues the event for the worker pool, dropping it if
// the queue is full.
func (b *inMemoryEventBus) PublishAsync(ctx context.Context, event Event) {
	b.countPublished()
	select {
	case b.queue <- eventMessage{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		b.countDropped()
		b.logger.Warn("event queue full, dropping event",
			zap.String("event_type", event.GetEventType()),
			zap.String("event_id", event.GetEventID()),
		)
	}
}

func (b *inMemoryEventBus) Stats() BusStats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	stats := b.stats
	stats.Queued = len(b.queue)
	return stats
}

func (b *inMemoryEventBus) worker(ctx context.Context, id int) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.queue:
			for _, sub := range b.matching(msg.event.GetEventType()) {
				if err := b.executeHandler(msg.ctx, sub.handler, msg.event); err != nil {
					b.logger.Error("event handler failed",
						zap.Error(err),
						zap.Int("worker", id),
						zap.String("event_type", msg.event.GetEventType()),
						zap.String("handler", sub.handler.Name()),
					)
				}
			}
		}
	}
}

func (b *inMemoryEventBus) executeHandler(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler %s panicked: %v", handler.Name(), p)
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, b.config.HandlerTimeout)
	defer cancel()

	if err := handler.Handle(hctx, event); err != nil {
		b.countFailed()
		return err
	}
	b.countDelivered()
	return nil
}

func (b *inMemoryEventBus) matching(eventType string) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var matched []subscription
	for _, sub := range b.subscriptions {
		if matchesPattern(sub.pattern, eventType) {
			matched = append(matched, sub)
		}
	}
	return matched
}

func matchesPattern(pattern, eventType string) bool {
	if pattern == eventType || pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

func (b *inMemoryEventBus) countPublished() {
	b.statsMu.Lock()
	b.stats.Published++
	b.statsMu.Unlock()
}

func (b *inMemoryEventBus) countDelivered() {
	b.statsMu.Lock()
	b.stats.Delivered++
	b.statsMu.Unlock()
}

func (b *inMemoryEventBus) countFailed() {
	b.statsMu.Lock()
	b.stats.Failed++
	b.statsMu.Unlock()
}

func (b *inMemoryEventBus) countDropped() {
	b.statsMu.Lock()
	b.stats.Dropped++
	b.statsMu.Unlock()
}
