// ===============================
// FILE: internal/repositories/thread_repository.go
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

// ThreadRepository persists discussion threads.
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id int64, userID *int64) (*models.Thread, error)
	Update(ctx context.Context, thread *models.Thread) error
	Delete(ctx context.Context, id int64) error
	SetLocked(ctx context.Context, id int64, locked bool) error
	List(ctx context.Context, params models.PaginationParams, category *string, userID *int64) ([]*models.Thread, int64, error)
}

type threadRepository struct {
	*BaseRepository
}

// NewThreadRepository creates a thread repository.
func NewThreadRepository(db *database.Manager, logger *zap.Logger) ThreadRepository {
	return &threadRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const threadColumns = `
	t.id, t.user_id, t.title, t.body, t.category, t.is_locked,
	t.created_at, t.updated_at,
	u.username, u.display_name,
	(SELECT COUNT(*) FROM content_nodes c WHERE c.thread_id = t.id) AS comment_count,
	(SELECT COUNT(*) FROM votes v WHERE v.votable_id = t.id AND v.votable_type = 'thread' AND v.value = 'up') AS upvotes,
	(SELECT COUNT(*) FROM votes v WHERE v.votable_id = t.id AND v.votable_type = 'thread' AND v.value = 'down') AS downvotes,
	(SELECT v.value FROM votes v WHERE v.votable_id = t.id AND v.votable_type = 'thread' AND v.user_id = $1) AS user_vote`

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	query := `
		INSERT INTO threads (user_id, title, body, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		thread.UserID, thread.Title, thread.Body, thread.Category,
	).Scan(&thread.ID, &thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

func (r *threadRepository) GetByID(ctx context.Context, id int64, userID *int64) (*models.Thread, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM threads t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $2 AND t.deleted_at IS NULL`, threadColumns)

	thread, err := scanThread(r.QueryRowContext(ctx, query, nullableID(userID), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get thread %d: %w", id, err)
	}
	return thread, nil
}

func (r *threadRepository) Update(ctx context.Context, thread *models.Thread) error {
	query := `
		UPDATE threads
		SET title = $1, body = $2, category = $3, updated_at = NOW()
		WHERE id = $4 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		thread.Title, thread.Body, thread.Category, thread.ID,
	).Scan(&thread.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update thread %d: %w", thread.ID, err)
	}
	return nil
}

// Delete soft-deletes so attached comments and votes stay auditable.
func (r *threadRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx,
		`UPDATE threads SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete thread %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete thread %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *threadRepository) SetLocked(ctx context.Context, id int64, locked bool) error {
	result, err := r.ExecContext(ctx,
		`UPDATE threads SET is_locked = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id, locked)
	if err != nil {
		return fmt.Errorf("set thread %d locked=%t: %w", id, locked, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set thread %d locked: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *threadRepository) List(ctx context.Context, params models.PaginationParams, category *string, userID *int64) ([]*models.Thread, int64, error) {
	where := "t.deleted_at IS NULL"
	args := []interface{}{nullableID(userID)}
	if category != nil {
		where += fmt.Sprintf(" AND t.category = $%d", len(args)+1)
		args = append(args, *category)
	}

	var order string
	switch params.Sort {
	case models.SortOldest:
		order = "ORDER BY t.created_at ASC, t.id ASC"
	case models.SortPopular:
		order = "ORDER BY upvotes DESC, t.created_at DESC, t.id DESC"
	default:
		order = "ORDER BY t.created_at DESC, t.id DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM threads t
		JOIN users u ON u.id = t.user_id
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d`, threadColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, params.Offset())

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []*models.Thread
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate threads: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM threads t WHERE t.deleted_at IS NULL"
	countArgs := []interface{}{}
	if category != nil {
		countQuery += " AND t.category = $1"
		countArgs = append(countArgs, *category)
	}
	total, err := r.GetTotalCount(ctx, countQuery, countArgs...)
	if err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

func scanThread(row rowScanner) (*models.Thread, error) {
	var thread models.Thread
	var userVote sql.NullString

	err := row.Scan(
		&thread.ID, &thread.UserID, &thread.Title, &thread.Body, &thread.Category, &thread.IsLocked,
		&thread.CreatedAt, &thread.UpdatedAt,
		&thread.Username, &thread.DisplayName,
		&thread.CommentCount,
		&thread.Upvotes, &thread.Downvotes,
		&userVote,
	)
	if err != nil {
		return nil, err
	}

	thread.Score = thread.Upvotes - thread.Downvotes
	if userVote.Valid {
		thread.UserVote = &userVote.String
	}
	return &thread, nil
}
