// ===============================
// FILE: internal/services/thread_service.go
// ===============================

package services

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"threadhub/internal/events"
	"threadhub/internal/models"
	"threadhub/internal/repositories"
)

type threadService struct {
	repos    *repositories.Collection
	bus      events.EventBus
	logger   *zap.Logger
	validate *validator.Validate
}

// NewThreadService creates the thread service.
func NewThreadService(repos *repositories.Collection, bus events.EventBus, logger *zap.Logger) ThreadService {
	return &threadService{
		repos:    repos,
		bus:      bus,
		logger:   logger,
		validate: validator.New(),
	}
}

func (s *threadService) CreateThread(ctx context.Context, req *CreateThreadRequest) (*models.Thread, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid thread data", err)
	}

	if _, err := s.repos.Users.EnsureExists(ctx, req.UserID, req.Username); err != nil {
		return nil, NewInternalError("failed to resolve author", err)
	}

	thread := &models.Thread{
		UserID:   req.UserID,
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
	}
	if err := s.repos.Threads.Create(ctx, thread); err != nil {
		return nil, NewInternalError("failed to create thread", err)
	}

	s.logger.Info("thread created",
		zap.Int64("thread_id", thread.ID),
		zap.Int64("user_id", req.UserID),
	)

	s.bus.PublishAsync(ctx, events.NewThreadCreatedEvent(thread.ID, req.UserID, thread.Title))

	return s.GetThread(ctx, thread.ID, &req.UserID)
}

func (s *threadService) GetThread(ctx context.Context, threadID int64, userID *int64) (*models.Thread, error) {
	thread, err := s.repos.Threads.GetByID(ctx, threadID, userID)
	if err != nil {
		return nil, mapNotFound(err, "thread", threadID)
	}
	if userID != nil {
		thread.IsOwner = thread.UserID == *userID
	}
	return thread, nil
}

func (s *threadService) UpdateThread(ctx context.Context, req *UpdateThreadRequest) (*models.Thread, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid thread data", err)
	}

	thread, err := s.repos.Threads.GetByID(ctx, req.ThreadID, &req.UserID)
	if err != nil {
		return nil, mapNotFound(err, "thread", req.ThreadID)
	}
	if thread.UserID != req.UserID {
		return nil, NewAuthorizationError(req.UserID, "thread", "edit")
	}

	thread.Title = req.Title
	thread.Body = req.Body
	thread.Category = req.Category
	if err := s.repos.Threads.Update(ctx, thread); err != nil {
		return nil, NewInternalError("failed to update thread", err)
	}

	thread.IsOwner = true
	return thread, nil
}

func (s *threadService) DeleteThread(ctx context.Context, threadID, userID int64) error {
	thread, err := s.repos.Threads.GetByID(ctx, threadID, nil)
	if err != nil {
		return mapNotFound(err, "thread", threadID)
	}
	if thread.UserID != userID {
		return NewAuthorizationError(userID, "thread", "delete")
	}

	if err := s.repos.Threads.Delete(ctx, threadID); err != nil {
		return NewInternalError("failed to delete thread", err)
	}

	s.logger.Info("thread deleted",
		zap.Int64("thread_id", threadID),
		zap.Int64("user_id", userID),
	)
	return nil
}

func (s *threadService) LockThread(ctx context.Context, threadID, userID int64, locked bool) error {
	thread, err := s.repos.Threads.GetByID(ctx, threadID, nil)
	if err != nil {
		return mapNotFound(err, "thread", threadID)
	}
	if thread.UserID != userID {
		return NewAuthorizationError(userID, "thread", "lock")
	}

	if err := s.repos.Threads.SetLocked(ctx, threadID, locked); err != nil {
		return NewInternalError("failed to change thread lock", err)
	}
	return nil
}

func (s *threadService) ListThreads(ctx context.Context, req *ListThreadsRequest) (*models.PaginatedResponse[*models.Thread], error) {
	if req.Pagination.Page < 1 || req.Pagination.PerPage < 1 {
		return nil, NewValidationError("page and per_page must be positive", nil)
	}

	threads, total, err := s.repos.Threads.List(ctx, req.Pagination, req.Category, req.UserID)
	if err != nil {
		return nil, NewInternalError("failed to list threads", err)
	}

	if req.UserID != nil {
		for _, t := range threads {
			t.IsOwner = t.UserID == *req.UserID
		}
	}

	return &models.PaginatedResponse[*models.Thread]{
		Data:       threads,
		Pagination: models.NewPaginationMeta(req.Pagination, total),
	}, nil
}
