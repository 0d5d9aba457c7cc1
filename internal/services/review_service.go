// ===============================
// FILE: internal/services/review_service.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"threadhub/internal/events"
	"threadhub/internal/highlight"
	"threadhub/internal/models"
	"threadhub/internal/repositories"
)

type reviewService struct {
	repos    *repositories.Collection
	bus      events.EventBus
	logger   *zap.Logger
	validate *validator.Validate
}

// NewReviewService creates the review service.
func NewReviewService(repos *repositories.Collection, bus events.EventBus, logger *zap.Logger) ReviewService {
	return &reviewService{
		repos:    repos,
		bus:      bus,
		logger:   logger,
		validate: validator.New(),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, req *CreateReviewRequest) (*models.Review, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid review data", err)
	}

	thread, err := s.repos.Threads.GetByID(ctx, req.ThreadID, nil)
	if err != nil {
		return nil, mapNotFound(err, "thread", req.ThreadID)
	}
	if thread.UserID == req.UserID {
		return nil, NewBusinessError("cannot review your own thread", "SELF_REVIEW")
	}

	if _, err := s.repos.Users.EnsureExists(ctx, req.UserID, req.Username); err != nil {
		return nil, NewInternalError("failed to resolve author", err)
	}

	review := &models.Review{
		ThreadID: req.ThreadID,
		UserID:   req.UserID,
		Rating:   req.Rating,
		Body:     req.Body,
	}
	if err := s.repos.Reviews.Create(ctx, review); err != nil {
		return nil, NewInternalError("failed to create review", err)
	}

	s.logger.Info("review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("thread_id", req.ThreadID),
		zap.Int64("user_id", req.UserID),
		zap.Int("rating", req.Rating),
	)

	s.bus.PublishAsync(ctx, events.NewReviewCreatedEvent(review.ID, thread.ID, req.UserID, thread.UserID, req.Rating))

	return s.GetReview(ctx, review.ID, &req.UserID)
}

func (s *reviewService) GetReview(ctx context.Context, reviewID int64, userID *int64) (*models.Review, error) {
	review, err := s.repos.Reviews.GetByID(ctx, reviewID, userID)
	if err != nil {
		return nil, mapNotFound(err, "review", reviewID)
	}
	if userID != nil {
		review.IsOwner = review.UserID == *userID
	}
	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, req *UpdateReviewRequest) (*models.Review, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid review data", err)
	}

	review, err := s.repos.Reviews.GetByID(ctx, req.ReviewID, &req.UserID)
	if err != nil {
		return nil, mapNotFound(err, "review", req.ReviewID)
	}
	if review.UserID != req.UserID {
		return nil, NewAuthorizationError(req.UserID, "review", "edit")
	}

	review.Rating = req.Rating
	review.Body = req.Body
	if err := s.repos.Reviews.Update(ctx, review); err != nil {
		return nil, NewInternalError("failed to update review", err)
	}

	review.IsOwner = true
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, reviewID, userID int64) error {
	review, err := s.repos.Reviews.GetByID(ctx, reviewID, nil)
	if err != nil {
		return mapNotFound(err, "review", reviewID)
	}
	if review.UserID != userID {
		return NewAuthorizationError(userID, "review", "delete")
	}

	if err := s.repos.Reviews.Delete(ctx, reviewID); err != nil {
		return NewInternalError("failed to delete review", err)
	}
	return nil
}

// ListReviews pages one review listing, scoped to a thread, an
// author's profile, or both, with the same highlight guarantee as
// comments.
func (s *reviewService) ListReviews(ctx context.Context, req *ListReviewsRequest) (*models.PaginatedResponse[*models.Review], error) {
	if req.Pagination.Page < 1 || req.Pagination.PerPage < 1 {
		return nil, NewValidationError("page and per_page must be positive", nil)
	}
	if err := s.checkListingScope(ctx, req.ThreadID, req.AuthorID); err != nil {
		return nil, err
	}

	src := &reviewSource{svc: s, threadID: req.ThreadID, authorID: req.AuthorID, userID: req.UserID}
	paginator := highlight.NewPaginator[*models.Review](src)

	page, err := paginator.Page(ctx, req.Pagination, req.HighlightID)
	if err != nil {
		if svcErr, ok := GetServiceError(err); ok {
			return nil, svcErr
		}
		return nil, NewInternalError("failed to page reviews", err)
	}
	if req.HighlightID != nil && page.Highlight == nil {
		page.Highlight = &models.HighlightInfo{TargetID: *req.HighlightID}
	}

	if req.UserID != nil {
		for _, r := range page.Data {
			r.IsOwner = r.UserID == *req.UserID
		}
	}

	return page, nil
}

// checkListingScope validates the filter dimensions of a review
// listing. At least one of thread and author must be present and
// whichever is present must exist.
func (s *reviewService) checkListingScope(ctx context.Context, threadID, authorID *int64) error {
	if threadID == nil && authorID == nil {
		return NewValidationError("a thread or author filter is required", nil)
	}
	if threadID != nil {
		if _, err := s.repos.Threads.GetByID(ctx, *threadID, nil); err != nil {
			return mapNotFound(err, "thread", *threadID)
		}
	}
	if authorID != nil {
		if _, err := s.repos.Users.GetByID(ctx, *authorID); err != nil {
			return mapNotFound(err, "user", *authorID)
		}
	}
	return nil
}

func (s *reviewService) LocateReview(ctx context.Context, req *LocateReviewRequest) (*models.HighlightInfo, error) {
	if req.PerPage < 1 {
		return nil, NewValidationError("per_page must be positive", nil)
	}

	if err := s.checkListingScope(ctx, req.ThreadID, req.AuthorID); err != nil {
		return nil, err
	}

	review, err := s.repos.Reviews.GetByID(ctx, req.TargetID, nil)
	if err != nil {
		return nil, mapNotFound(err, "review", req.TargetID)
	}
	if req.ThreadID != nil && review.ThreadID != *req.ThreadID {
		return nil, EntityNotFoundError("review", req.TargetID)
	}
	if req.AuthorID != nil && review.UserID != *req.AuthorID {
		return nil, EntityNotFoundError("review", req.TargetID)
	}

	src := &reviewSource{svc: s, threadID: req.ThreadID, authorID: req.AuthorID}
	locator := highlight.NewLocator[*models.Review](src)

	info, err := locator.Locate(ctx, req.TargetID, req.PerPage, req.Sort)
	if err != nil {
		if errors.Is(err, highlight.ErrNotFound) {
			return nil, EntityNotFoundError("review", req.TargetID)
		}
		return nil, NewInternalError("failed to locate review", err)
	}
	return info, nil
}

func (s *reviewService) GetRatingSummary(ctx context.Context, threadID int64) (*RatingSummary, error) {
	if _, err := s.repos.Threads.GetByID(ctx, threadID, nil); err != nil {
		return nil, mapNotFound(err, "thread", threadID)
	}

	avg, count, err := s.repos.Reviews.AverageRating(ctx, threadID)
	if err != nil {
		return nil, NewInternalError("failed to summarize ratings", err)
	}

	return &RatingSummary{
		ThreadID:      threadID,
		AverageRating: avg,
		ReviewCount:   count,
	}, nil
}

// reviewSource adapts the review repository to the highlight engine.
// Both filter dimensions are optional and mirror the listing scope.
type reviewSource struct {
	svc      *reviewService
	threadID *int64
	authorID *int64
	userID   *int64
}

func (src *reviewSource) CountBefore(ctx context.Context, targetID int64, sort models.SortOrder) (int64, error) {
	return src.svc.repos.Reviews.CountBefore(ctx, src.threadID, targetID, src.authorID, sort)
}

func (src *reviewSource) FetchPage(ctx context.Context, params models.PaginationParams) ([]*models.Review, int64, error) {
	return src.svc.repos.Reviews.List(ctx, src.threadID, src.authorID, params, src.userID)
}

func (src *reviewSource) FetchByID(ctx context.Context, id int64) (*models.Review, error) {
	review, err := src.svc.repos.Reviews.GetByID(ctx, id, src.userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review %d: %w", id, highlight.ErrNotFound)
		}
		return nil, mapNotFound(err, "review", id)
	}
	if src.threadID != nil && review.ThreadID != *src.threadID {
		return nil, fmt.Errorf("review %d not in thread %d listing: %w", id, *src.threadID, highlight.ErrNotFound)
	}
	if src.authorID != nil && review.UserID != *src.authorID {
		return nil, fmt.Errorf("review %d not by author %d: %w", id, *src.authorID, highlight.ErrNotFound)
	}
	return review, nil
}
