// ===============================
// FILE: internal/services/notification_service.go
// ===============================

package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"threadhub/internal/events"
	"threadhub/internal/models"
	"threadhub/internal/repositories"
)

// RealtimePublisher pushes a payload to a connected user. Implemented
// by the websocket hub; nil disables pushes.
type RealtimePublisher interface {
	PushToUser(userID int64, payload interface{})
}

type notificationService struct {
	repos    *repositories.Collection
	logger   *zap.Logger
	realtime RealtimePublisher
}

// NewNotificationService creates the notification service and
// subscribes it to the domain events that produce notifications.
func NewNotificationService(repos *repositories.Collection, bus events.EventBus, realtime RealtimePublisher, logger *zap.Logger) NotificationService {
	s := &notificationService{
		repos:    repos,
		logger:   logger,
		realtime: realtime,
	}

	bus.Subscribe(events.EventCommentCreated, events.EventHandlerFunc{
		HandlerName: "notify_thread_owner_on_comment",
		Fn:          s.onCommentCreated,
	})
	bus.Subscribe(events.EventReplyCreated, events.EventHandlerFunc{
		HandlerName: "notify_author_on_reply",
		Fn:          s.onReplyCreated,
	})
	bus.Subscribe(events.EventReviewCreated, events.EventHandlerFunc{
		HandlerName: "notify_thread_owner_on_review",
		Fn:          s.onReviewCreated,
	})
	bus.Subscribe(events.EventVoteCast, events.EventHandlerFunc{
		HandlerName: "notify_owner_on_upvote",
		Fn:          s.onVoteCast,
	})

	return s
}

// ===============================
// QUERIES
// ===============================

func (s *notificationService) ListNotifications(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Notification], error) {
	if params.Page < 1 || params.PerPage < 1 {
		return nil, NewValidationError("page and per_page must be positive", nil)
	}

	notifications, total, err := s.repos.Notifications.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, NewInternalError("failed to list notifications", err)
	}

	return &models.PaginatedResponse[*models.Notification]{
		Data:       notifications,
		Pagination: models.NewPaginationMeta(params, total),
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID int64) error {
	if err := s.repos.Notifications.MarkRead(ctx, notificationID, userID); err != nil {
		return mapNotFound(err, "notification", notificationID)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.repos.Notifications.MarkAllRead(ctx, userID); err != nil {
		return NewInternalError("failed to mark notifications read", err)
	}
	return nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID int64) (int64, error) {
	count, err := s.repos.Notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, NewInternalError("failed to count notifications", err)
	}
	return count, nil
}

// ===============================
// EVENT HANDLERS
// ===============================

func (s *notificationService) onCommentCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.GetEventType())
	}
	actorID := derefUserID(e.GetUserID())
	// Commenting on your own thread does not notify you.
	if actorID == e.ThreadOwnerID {
		return nil
	}
	return s.deliver(ctx, &models.Notification{
		UserID:   e.ThreadOwnerID,
		ActorID:  actorID,
		Type:     "comment",
		ThreadID: &e.ThreadID,
		NodeID:   &e.CommentID,
		Message:  "commented on your thread",
	})
}

func (s *notificationService) onReplyCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ReplyCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.GetEventType())
	}
	actorID := derefUserID(e.GetUserID())
	if actorID == e.TargetAuthorID {
		return nil
	}
	return s.deliver(ctx, &models.Notification{
		UserID:   e.TargetAuthorID,
		ActorID:  actorID,
		Type:     "reply",
		ThreadID: &e.ThreadID,
		NodeID:   &e.ReplyID,
		Message:  "replied to your comment",
	})
}

func (s *notificationService) onReviewCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ReviewCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.GetEventType())
	}
	actorID := derefUserID(e.GetUserID())
	if actorID == e.ThreadOwnerID {
		return nil
	}
	return s.deliver(ctx, &models.Notification{
		UserID:   e.ThreadOwnerID,
		ActorID:  actorID,
		Type:     "review",
		ThreadID: &e.ThreadID,
		NodeID:   &e.ReviewID,
		Message:  fmt.Sprintf("reviewed your thread (%d stars)", e.Rating),
	})
}

// onVoteCast notifies owners about new upvotes only. Removals,
// flips, and downvotes stay silent.
func (s *notificationService) onVoteCast(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.VoteCastEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.GetEventType())
	}
	if e.Outcome != string(models.VoteOutcomeCreated) || e.Value != string(models.VoteUp) {
		return nil
	}
	actorID := derefUserID(e.GetUserID())
	if actorID == e.OwnerID {
		return nil
	}
	return s.deliver(ctx, &models.Notification{
		UserID:  e.OwnerID,
		ActorID: actorID,
		Type:    "upvote",
		NodeID:  &e.VotableID,
		Message: fmt.Sprintf("upvoted your %s", e.VotableType),
	})
}

func (s *notificationService) deliver(ctx context.Context, n *models.Notification) error {
	if err := s.repos.Notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if s.realtime != nil {
		s.realtime.PushToUser(n.UserID, n)
	}

	s.logger.Debug("notification delivered",
		zap.Int64("user_id", n.UserID),
		zap.Int64("actor_id", n.ActorID),
		zap.String("type", n.Type),
	)
	return nil
}

func derefUserID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
