// ===============================
// FILE: internal/repositories/content_repository.go
// ===============================

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"threadhub/internal/database"
	"threadhub/internal/models"
)

// ContentRepository persists comments and replies. Both kinds live in
// one table; replies carry parent_id and optionally reply_to_id.
type ContentRepository interface {
	Create(ctx context.Context, node *models.ContentNode) error
	GetByID(ctx context.Context, id int64, userID *int64) (*models.ContentNode, error)
	Update(ctx context.Context, node *models.ContentNode) error
	Delete(ctx context.Context, id int64) error

	// ListTopLevel returns one page of a thread's top-level comments
	// plus the total top-level count, under the given ordering. A
	// non-nil authorID restricts the listing to that author's
	// comments.
	ListTopLevel(ctx context.Context, threadID int64, authorID *int64, params models.PaginationParams, userID *int64) ([]*models.ContentNode, int64, error)

	// CountBefore returns how many of a thread's top-level comments
	// sort strictly before the target under the given ordering and
	// author filter, using a single query.
	CountBefore(ctx context.Context, threadID, targetID int64, authorID *int64, sort models.SortOrder) (int64, error)

	// ListRepliesByParents batch-loads replies for a set of top-level
	// comments, oldest first.
	ListRepliesByParents(ctx context.Context, parentIDs []int64, userID *int64) (map[int64][]*models.ContentNode, error)

	CountByThread(ctx context.Context, threadID int64) (int64, error)
}

type contentRepository struct {
	*BaseRepository
}

// NewContentRepository creates a content node repository.
func NewContentRepository(db *database.Manager, logger *zap.Logger) ContentRepository {
	return &contentRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// nodeColumns selects a node with its author and vote counts. Upvote
// and downvote counts come from correlated subqueries so one snapshot
// serves both sorting and display. $1 carries the viewer id (nullable)
// for the user_vote column.
const nodeColumns = `
	c.id, c.kind, c.thread_id, c.user_id, c.parent_id, c.reply_to_id,
	c.body, c.created_at, c.updated_at,
	u.username, u.display_name,
	(SELECT COUNT(*) FROM votes v WHERE v.votable_id = c.id AND v.votable_type = 'comment' AND v.value = 'up') AS upvotes,
	(SELECT COUNT(*) FROM votes v WHERE v.votable_id = c.id AND v.votable_type = 'comment' AND v.value = 'down') AS downvotes,
	(SELECT v.value FROM votes v WHERE v.votable_id = c.id AND v.votable_type = 'comment' AND v.user_id = $1) AS user_vote`

func (r *contentRepository) Create(ctx context.Context, node *models.ContentNode) error {
	query := `
		INSERT INTO content_nodes (kind, thread_id, user_id, parent_id, reply_to_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		node.Kind, node.ThreadID, node.UserID, node.ParentID, node.ReplyToID, node.Body,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert content node: %w", err)
	}
	return nil
}

func (r *contentRepository) GetByID(ctx context.Context, id int64, userID *int64) (*models.ContentNode, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM content_nodes c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $2`, nodeColumns)

	node, err := scanNode(r.QueryRowContext(ctx, query, nullableID(userID), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get content node %d: %w", id, err)
	}
	return node, nil
}

func (r *contentRepository) Update(ctx context.Context, node *models.ContentNode) error {
	query := `
		UPDATE content_nodes
		SET body = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query, node.Body, node.ID).Scan(&node.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update content node %d: %w", node.ID, err)
	}
	return nil
}

func (r *contentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM content_nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content node %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete content node %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// orderClause maps a sort order onto SQL. Every ordering ends with an
// id tiebreak so positions are stable for CountBefore.
func orderClause(sort models.SortOrder) string {
	switch sort {
	case models.SortOldest:
		return "ORDER BY c.created_at ASC, c.id ASC"
	case models.SortPopular:
		return "ORDER BY upvotes DESC, c.created_at DESC, c.id DESC"
	default:
		return "ORDER BY c.created_at DESC, c.id DESC"
	}
}

func (r *contentRepository) ListTopLevel(ctx context.Context, threadID int64, authorID *int64, params models.PaginationParams, userID *int64) ([]*models.ContentNode, int64, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM content_nodes c
		JOIN users u ON u.id = c.user_id
		WHERE c.thread_id = $2 AND c.kind = 'comment'
			AND ($3::bigint IS NULL OR c.user_id = $3)
		%s
		LIMIT $4 OFFSET $5`, nodeColumns, orderClause(params.Sort))

	rows, err := r.QueryContext(ctx, query, nullableID(userID), threadID, nullableID(authorID), params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list comments for thread %d: %w", threadID, err)
	}
	defer rows.Close()

	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.GetTotalCount(ctx,
		`SELECT COUNT(*) FROM content_nodes
		 WHERE thread_id = $1 AND kind = 'comment'
			AND ($2::bigint IS NULL OR user_id = $2)`,
		threadID, nullableID(authorID))
	if err != nil {
		return nil, 0, err
	}

	return nodes, total, nil
}

// CountBefore answers "how many top-level comments sort strictly
// before the target" with one statement. The target's sort keys come
// from a CTE; the comparison mirrors orderClause exactly, including
// the id tiebreak.
func (r *contentRepository) CountBefore(ctx context.Context, threadID, targetID int64, authorID *int64, sort models.SortOrder) (int64, error) {
	var predicate string
	switch sort {
	case models.SortOldest:
		predicate = `(c.created_at < t.created_at
			OR (c.created_at = t.created_at AND c.id < t.id))`
	case models.SortPopular:
		predicate = `(cu.upvotes > t.upvotes
			OR (cu.upvotes = t.upvotes AND c.created_at > t.created_at)
			OR (cu.upvotes = t.upvotes AND c.created_at = t.created_at AND c.id > t.id))`
	default: // recent
		predicate = `(c.created_at > t.created_at
			OR (c.created_at = t.created_at AND c.id > t.id))`
	}

	query := fmt.Sprintf(`
		WITH t AS (
			SELECT c.id, c.created_at,
				(SELECT COUNT(*) FROM votes v
				 WHERE v.votable_id = c.id AND v.votable_type = 'comment' AND v.value = 'up') AS upvotes
			FROM content_nodes c
			WHERE c.id = $2 AND c.thread_id = $1 AND c.kind = 'comment'
		)
		SELECT COUNT(*)
		FROM content_nodes c
		CROSS JOIN t
		CROSS JOIN LATERAL (
			SELECT (SELECT COUNT(*) FROM votes v
				WHERE v.votable_id = c.id AND v.votable_type = 'comment' AND v.value = 'up') AS upvotes
		) cu
		WHERE c.thread_id = $1 AND c.kind = 'comment'
			AND ($3::bigint IS NULL OR c.user_id = $3) AND %s`, predicate)

	var count int64
	err := r.QueryRowContext(ctx, query, threadID, targetID, nullableID(authorID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments before %d: %w", targetID, err)
	}
	return count, nil
}

func (r *contentRepository) ListRepliesByParents(ctx context.Context, parentIDs []int64, userID *int64) (map[int64][]*models.ContentNode, error) {
	if len(parentIDs) == 0 {
		return map[int64][]*models.ContentNode{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM content_nodes c
		JOIN users u ON u.id = c.user_id
		WHERE c.parent_id = ANY($2)
		ORDER BY c.created_at ASC, c.id ASC`, nodeColumns)

	rows, err := r.QueryContext(ctx, query, nullableID(userID), pq.Array(parentIDs))
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	replies, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}

	byParent := make(map[int64][]*models.ContentNode, len(parentIDs))
	for _, reply := range replies {
		if reply.ParentID == nil {
			continue
		}
		byParent[*reply.ParentID] = append(byParent[*reply.ParentID], reply)
	}
	return byParent, nil
}

func (r *contentRepository) CountByThread(ctx context.Context, threadID int64) (int64, error) {
	return r.GetTotalCount(ctx,
		`SELECT COUNT(*) FROM content_nodes WHERE thread_id = $1`, threadID)
}

// ===============================
// SCANNING HELPERS
// ===============================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*models.ContentNode, error) {
	var node models.ContentNode
	var userVote sql.NullString

	err := row.Scan(
		&node.ID, &node.Kind, &node.ThreadID, &node.UserID, &node.ParentID, &node.ReplyToID,
		&node.Body, &node.CreatedAt, &node.UpdatedAt,
		&node.Username, &node.DisplayName,
		&node.Upvotes, &node.Downvotes,
		&userVote,
	)
	if err != nil {
		return nil, err
	}

	node.Score = node.Upvotes - node.Downvotes
	if userVote.Valid {
		node.UserVote = &userVote.String
	}
	return &node, nil
}

func scanNodes(rows *sql.Rows) ([]*models.ContentNode, error) {
	var nodes []*models.ContentNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content nodes: %w", err)
	}
	return nodes, nil
}

// nullableID converts an optional viewer id into a sql-friendly value.
func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
