// ===============================
// FILE: internal/repositories/vote_repository.go
// ===============================

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"threadhub/internal/database"
	"threadhub/internal/models"
)

// VoteRepository persists votes and serves aggregate snapshots. A
// unique index on (user_id, votable_id, votable_type) backs the
// one-vote-per-user rule even under concurrent submissions.
type VoteRepository interface {
	// Toggle applies one vote submission transactionally and reports
	// whether it created, updated, or removed the user's vote.
	Toggle(ctx context.Context, userID, votableID int64, votableType models.VotableType, value models.VoteValue) (models.VoteOutcome, error)

	// GetAggregate returns up/down counts and score for one entity
	// from a single snapshot query.
	GetAggregate(ctx context.Context, votableID int64, votableType models.VotableType) (*models.VoteAggregate, error)

	// GetUserVote returns the user's current vote, or nil when none.
	GetUserVote(ctx context.Context, userID, votableID int64, votableType models.VotableType) (*models.Vote, error)
}

type voteRepository struct {
	*BaseRepository
}

// NewVoteRepository creates a vote repository.
func NewVoteRepository(db *database.Manager, logger *zap.Logger) VoteRepository {
	return &voteRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *voteRepository) Toggle(ctx context.Context, userID, votableID int64, votableType models.VotableType, value models.VoteValue) (models.VoteOutcome, error) {
	var outcome models.VoteOutcome

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var current models.VoteValue
		err := tx.QueryRowContext(ctx, `
			SELECT value FROM votes
			WHERE user_id = $1 AND votable_id = $2 AND votable_type = $3
			FOR UPDATE`,
			userID, votableID, votableType,
		).Scan(&current)

		switch {
		case err == sql.ErrNoRows:
			// No existing vote. ON CONFLICT keeps a concurrent insert
			// of the same vote from violating the unique index.
			_, err := tx.ExecContext(ctx, `
				INSERT INTO votes (user_id, votable_id, votable_type, value, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())
				ON CONFLICT (user_id, votable_id, votable_type)
				DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
				userID, votableID, votableType, value,
			)
			if err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
			outcome = models.VoteOutcomeCreated
			return nil

		case err != nil:
			return fmt.Errorf("read existing vote: %w", err)

		case current == value:
			// Same polarity submitted again removes the vote.
			_, err := tx.ExecContext(ctx, `
				DELETE FROM votes
				WHERE user_id = $1 AND votable_id = $2 AND votable_type = $3`,
				userID, votableID, votableType,
			)
			if err != nil {
				return fmt.Errorf("remove vote: %w", err)
			}
			outcome = models.VoteOutcomeRemoved
			return nil

		default:
			_, err := tx.ExecContext(ctx, `
				UPDATE votes SET value = $4, updated_at = NOW()
				WHERE user_id = $1 AND votable_id = $2 AND votable_type = $3`,
				userID, votableID, votableType, value,
			)
			if err != nil {
				return fmt.Errorf("update vote: %w", err)
			}
			outcome = models.VoteOutcomeUpdated
			return nil
		}
	})
	if err != nil {
		return "", err
	}

	return outcome, nil
}

func (r *voteRepository) GetAggregate(ctx context.Context, votableID int64, votableType models.VotableType) (*models.VoteAggregate, error) {
	agg := &models.VoteAggregate{
		VotableID:   votableID,
		VotableType: votableType,
	}

	// Conditional counts over one scan, so up and down come from the
	// same snapshot.
	err := r.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE value = 'up'),
			COUNT(*) FILTER (WHERE value = 'down')
		FROM votes
		WHERE votable_id = $1 AND votable_type = $2`,
		votableID, votableType,
	).Scan(&agg.Upvotes, &agg.Downvotes)
	if err != nil {
		return nil, fmt.Errorf("aggregate votes for %s %d: %w", votableType, votableID, err)
	}

	agg.Score = agg.Upvotes - agg.Downvotes
	return agg, nil
}

func (r *voteRepository) GetUserVote(ctx context.Context, userID, votableID int64, votableType models.VotableType) (*models.Vote, error) {
	var vote models.Vote
	err := r.QueryRowContext(ctx, `
		SELECT id, user_id, votable_id, votable_type, value, created_at, updated_at
		FROM votes
		WHERE user_id = $1 AND votable_id = $2 AND votable_type = $3`,
		userID, votableID, votableType,
	).Scan(&vote.ID, &vote.UserID, &vote.VotableID, &vote.VotableType, &vote.Value, &vote.CreatedAt, &vote.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user vote: %w", err)
	}
	return &vote, nil
}
