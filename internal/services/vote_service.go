// ===============================
// FILE: internal/services/vote_service.go
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

type voteService struct {
	repos    *repositories.Collection
	bus      events.EventBus
	logger   *zap.Logger
	validate *validator.Validate
}

// NewVoteService creates the vote service.
func NewVoteService(repos *repositories.Collection, bus events.EventBus, logger *zap.Logger) VoteService {
	return &voteService{
		repos:    repos,
		bus:      bus,
		logger:   logger,
		validate: validator.New(),
	}
}

// CastVote toggles the user's vote on an entity. Submitting the same
// polarity twice removes the vote; the opposite polarity flips it.
// The returned aggregate reflects the state after the toggle.
func (s *voteService) CastVote(ctx context.Context, req *CastVoteRequest) (*VoteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid vote data", err)
	}
	votableType, err := models.ValidateVotableType(string(req.VotableType))
	if err != nil {
		return nil, NewValidationError(err.Error(), nil)
	}
	votableType = votableType.Canonical()
	if _, err := models.ValidateVoteValue(string(req.Value)); err != nil {
		return nil, NewValidationError(err.Error(), nil)
	}

	ownerID, err := s.resolveVotable(ctx, req.VotableID, votableType)
	if err != nil {
		return nil, err
	}

	outcome, err := s.repos.Votes.Toggle(ctx, req.UserID, req.VotableID, votableType, req.Value)
	if err != nil {
		return nil, NewInternalError("failed to apply vote", err)
	}

	agg, err := s.repos.Votes.GetAggregate(ctx, req.VotableID, votableType)
	if err != nil {
		return nil, NewInternalError("failed to aggregate votes", err)
	}

	s.logger.Info("vote cast",
		zap.Int64("user_id", req.UserID),
		zap.Int64("votable_id", req.VotableID),
		zap.String("votable_type", string(votableType)),
		zap.String("value", string(req.Value)),
		zap.String("outcome", string(outcome)),
	)

	s.bus.PublishAsync(ctx, events.NewVoteCastEvent(
		req.UserID, req.VotableID, string(votableType),
		string(req.Value), string(outcome), ownerID,
	))

	return &VoteResponse{Outcome: outcome, Aggregate: agg}, nil
}

func (s *voteService) GetAggregate(ctx context.Context, votableID int64, votableType models.VotableType) (*models.VoteAggregate, error) {
	if _, err := models.ValidateVotableType(string(votableType)); err != nil {
		return nil, NewValidationError(err.Error(), nil)
	}
	votableType = votableType.Canonical()
	if _, err := s.resolveVotable(ctx, votableID, votableType); err != nil {
		return nil, err
	}

	agg, err := s.repos.Votes.GetAggregate(ctx, votableID, votableType)
	if err != nil {
		return nil, NewInternalError("failed to aggregate votes", err)
	}
	return agg, nil
}

// resolveVotable verifies the voted entity exists and returns its
// owner for notification routing.
func (s *voteService) resolveVotable(ctx context.Context, votableID int64, votableType models.VotableType) (int64, error) {
	switch votableType {
	case models.VotableTypeThread:
		thread, err := s.repos.Threads.GetByID(ctx, votableID, nil)
		if err != nil {
			return 0, mapNotFound(err, "thread", votableID)
		}
		return thread.UserID, nil
	case models.VotableTypeComment:
		node, err := s.repos.Content.GetByID(ctx, votableID, nil)
		if err != nil {
			return 0, mapNotFound(err, "comment", votableID)
		}
		return node.UserID, nil
	case models.VotableTypeReview:
		review, err := s.repos.Reviews.GetByID(ctx, votableID, nil)
		if err != nil {
			return 0, mapNotFound(err, "review", votableID)
		}
		return review.UserID, nil
	default:
		return 0, NewValidationError("invalid votable type", nil)
	}
}
