// ===============================
// FILE: internal/repositories/review_repository.go
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

// ReviewRepository persists thread reviews. Listings share the same
// ordering and highlight rules as comments.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id int64, userID *int64) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
	// List pages one review listing. threadID and authorID are
	// optional filter dimensions; at least one must be set.
	List(ctx context.Context, threadID, authorID *int64, params models.PaginationParams, userID *int64) ([]*models.Review, int64, error)

	// CountBefore counts reviews sorting strictly before the target
	// under the same filters and ordering as List.
	CountBefore(ctx context.Context, threadID *int64, targetID int64, authorID *int64, sort models.SortOrder) (int64, error)
	AverageRating(ctx context.Context, threadID int64) (float64, int64, error)
}

type reviewRepository struct {
	*BaseRepository
}

// NewReviewRepository creates a review repository.
func NewReviewRepository(db *database.Manager, logger *zap.Logger) ReviewRepository {
	return &reviewRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const reviewColumns = `
	r.id, r.thread_id, r.user_id, r.rating, r.body, r.created_at, r.updated_at,
	u.username, u.display_name,
	(SELECT COUNT(*) FROM votes v WHERE v.votable_id = r.id AND v.votable_type = 'review' AND v.value = 'up') AS upvotes,
	(SELECT COUNT(*) FROM votes v WHERE v.votable_id = r.id AND v.votable_type = 'review' AND v.value = 'down') AS downvotes,
	(SELECT v.value FROM votes v WHERE v.votable_id = r.id AND v.votable_type = 'review' AND v.user_id = $1) AS user_vote`

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (thread_id, user_id, rating, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		review.ThreadID, review.UserID, review.Rating, review.Body,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64, userID *int64) (*models.Review, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $2`, reviewColumns)

	review, err := scanReview(r.QueryRowContext(ctx, query, nullableID(userID), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get review %d: %w", id, err)
	}
	return review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	query := `
		UPDATE reviews
		SET rating = $1, body = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query, review.Rating, review.Body, review.ID).Scan(&review.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update review %d: %w", review.ID, err)
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *reviewRepository) List(ctx context.Context, threadID, authorID *int64, params models.PaginationParams, userID *int64) ([]*models.Review, int64, error) {
	var order string
	switch params.Sort {
	case models.SortOldest:
		order = "ORDER BY r.created_at ASC, r.id ASC"
	case models.SortPopular:
		order = "ORDER BY upvotes DESC, r.created_at DESC, r.id DESC"
	default:
		order = "ORDER BY r.created_at DESC, r.id DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE ($2::bigint IS NULL OR r.thread_id = $2)
			AND ($3::bigint IS NULL OR r.user_id = $3)
		%s
		LIMIT $4 OFFSET $5`, reviewColumns, order)

	rows, err := r.QueryContext(ctx, query,
		nullableID(userID), nullableID(threadID), nullableID(authorID), params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}

	total, err := r.GetTotalCount(ctx,
		`SELECT COUNT(*) FROM reviews
		 WHERE ($1::bigint IS NULL OR thread_id = $1)
			AND ($2::bigint IS NULL OR user_id = $2)`,
		nullableID(threadID), nullableID(authorID))
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// CountBefore mirrors the listing order with one statement, same
// shape as the comment version.
func (r *reviewRepository) CountBefore(ctx context.Context, threadID *int64, targetID int64, authorID *int64, sort models.SortOrder) (int64, error) {
	var predicate string
	switch sort {
	case models.SortOldest:
		predicate = `(r.created_at < t.created_at
			OR (r.created_at = t.created_at AND r.id < t.id))`
	case models.SortPopular:
		predicate = `(ru.upvotes > t.upvotes
			OR (ru.upvotes = t.upvotes AND r.created_at > t.created_at)
			OR (ru.upvotes = t.upvotes AND r.created_at = t.created_at AND r.id > t.id))`
	default:
		predicate = `(r.created_at > t.created_at
			OR (r.created_at = t.created_at AND r.id > t.id))`
	}

	query := fmt.Sprintf(`
		WITH t AS (
			SELECT r.id, r.created_at,
				(SELECT COUNT(*) FROM votes v
				 WHERE v.votable_id = r.id AND v.votable_type = 'review' AND v.value = 'up') AS upvotes
			FROM reviews r
			WHERE r.id = $2
				AND ($1::bigint IS NULL OR r.thread_id = $1)
				AND ($3::bigint IS NULL OR r.user_id = $3)
		)
		SELECT COUNT(*)
		FROM reviews r
		CROSS JOIN t
		CROSS JOIN LATERAL (
			SELECT (SELECT COUNT(*) FROM votes v
				WHERE v.votable_id = r.id AND v.votable_type = 'review' AND v.value = 'up') AS upvotes
		) ru
		WHERE ($1::bigint IS NULL OR r.thread_id = $1)
			AND ($3::bigint IS NULL OR r.user_id = $3)
			AND %s`, predicate)

	var count int64
	err := r.QueryRowContext(ctx, query, nullableID(threadID), targetID, nullableID(authorID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reviews before %d: %w", targetID, err)
	}
	return count, nil
}

func (r *reviewRepository) AverageRating(ctx context.Context, threadID int64) (float64, int64, error) {
	var avg sql.NullFloat64
	var count int64
	err := r.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE thread_id = $1`, threadID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average rating for thread %d: %w", threadID, err)
	}
	return avg.Float64, count, nil
}

func scanReview(row rowScanner) (*models.Review, error) {
	var review models.Review
	var userVote sql.NullString

	err := row.Scan(
		&review.ID, &review.ThreadID, &review.UserID, &review.Rating, &review.Body,
		&review.CreatedAt, &review.UpdatedAt,
		&review.Username, &review.DisplayName,
		&review.Upvotes, &review.Downvotes,
		&userVote,
	)
	if err != nil {
		return nil, err
	}

	review.Score = review.Upvotes - review.Downvotes
	if userVote.Valid {
		review.UserVote = &userVote.String
	}
	return &review, nil
}
