// ===============================
// FILE: internal/models/models.go
// ===============================

package models

import (
	"fmt"
	"strings"
	"time"
)

// ===============================
// CONTENT NODES
// ===============================

// NodeKind discriminates top-level comments from replies in the
// flattened two-level hierarchy.
type NodeKind string

const (
	NodeKindComment NodeKind = "comment"
	NodeKindReply   NodeKind = "reply"
)

// ContentNode is a single comment or reply. A first-level reply
// points at its comment through ParentID and carries a nil ReplyToID.
// Nested replies are flattened: ParentID is always the original
// top-level reply, however deep the chain the user replied into, and
// ReplyToID records the node they actually addressed.
type ContentNode struct {
	ID        int64     `json:"id" db:"id"`
	Kind      NodeKind  `json:"kind" db:"kind"`
	ThreadID  int64     `json:"thread_id" db:"thread_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ParentID  *int64    `json:"parent_id,omitempty" db:"parent_id"`
	ReplyToID *int64    `json:"reply_to_id,omitempty" db:"reply_to_id"`
	Body      string    `json:"body" db:"body" validate:"required,min=1,max=10000"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joined fields
	Username    string  `json:"username" db:"username"`
	DisplayName *string `json:"display_name,omitempty" db:"display_name"`

	// Computed fields (not stored)
	Upvotes        int     `json:"upvotes" db:"-"`
	Downvotes      int     `json:"downvotes" db:"-"`
	Score          int     `json:"score" db:"-"`
	UserVote       *string `json:"user_vote,omitempty" db:"-"`
	IsOwner        bool    `json:"is_owner" db:"-"`
	ReplyToUser    *string `json:"reply_to_user,omitempty" db:"-"`
	CreatedAtHuman string  `json:"created_at_human,omitempty" db:"-"`

	// Replies carries the second level when a comment is returned with
	// its thread expanded.
	Replies []*ContentNode `json:"replies,omitempty" db:"-"`

	// IncludedFromOtherPage marks a node that was prepended to a page
	// because it was requested as a highlight but sorts onto a
	// different page.
	IncludedFromOtherPage bool `json:"included_from_other_page,omitempty" db:"-"`
}

// IsTopLevel reports whether the node is a top-level comment.
func (n *ContentNode) IsTopLevel() bool {
	return n.Kind == NodeKindComment
}

// IsReply reports whether the node is a reply.
func (n *ContentNode) IsReply() bool {
	return n.Kind == NodeKindReply
}

// EntryID returns the node id for pagination bookkeeping.
func (n *ContentNode) EntryID() int64 { return n.ID }

// MarkIncludedFromOtherPage flags the node as prepended from another
// page of the listing.
func (n *ContentNode) MarkIncludedFromOtherPage() { n.IncludedFromOtherPage = true }

// ===============================
// THREADS
// ===============================

// Thread is a discussion container that comments attach to.
type Thread struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Title     string     `json:"title" db:"title" validate:"required,min=3,max=255"`
	Body      string     `json:"body" db:"body" validate:"required,min=1,max=50000"`
	Category  *string    `json:"category,omitempty" db:"category"`
	IsLocked  bool       `json:"is_locked" db:"is_locked"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`

	// Joined fields
	Username    string  `json:"username" db:"username"`
	DisplayName *string `json:"display_name,omitempty" db:"display_name"`

	// Computed fields
	CommentCount int     `json:"comment_count" db:"-"`
	Upvotes      int     `json:"upvotes" db:"-"`
	Downvotes    int     `json:"downvotes" db:"-"`
	Score        int     `json:"score" db:"-"`
	UserVote     *string `json:"user_vote,omitempty" db:"-"`
	IsOwner      bool    `json:"is_owner" db:"-"`
}

// ===============================
// REVIEWS
// ===============================

// Review is a rated piece of feedback attached to a thread. Reviews
// page through the same highlighted pagination as comments.
type Review struct {
	ID        int64     `json:"id" db:"id"`
	ThreadID  int64     `json:"thread_id" db:"thread_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Body      string    `json:"body" db:"body" validate:"required,min=1,max=10000"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joined fields
	Username    string  `json:"username" db:"username"`
	DisplayName *string `json:"display_name,omitempty" db:"display_name"`

	// Computed fields
	Upvotes   int     `json:"upvotes" db:"-"`
	Downvotes int     `json:"downvotes" db:"-"`
	Score     int     `json:"score" db:"-"`
	UserVote  *string `json:"user_vote,omitempty" db:"-"`
	IsOwner   bool    `json:"is_owner" db:"-"`

	IncludedFromOtherPage bool `json:"included_from_other_page,omitempty" db:"-"`
}

// EntryID returns the review id for pagination bookkeeping.
func (r *Review) EntryID() int64 { return r.ID }

// MarkIncludedFromOtherPage flags the review as prepended from another
// page of the listing.
func (r *Review) MarkIncludedFromOtherPage() { r.IncludedFromOtherPage = true }

// ===============================
// VOTES
// ===============================

// VotableType is the closed set of entities that accept votes.
type VotableType string

const (
	VotableTypeThread  VotableType = "thread"
	VotableTypeComment VotableType = "comment"
	VotableTypeReply   VotableType = "reply"
	VotableTypeReview  VotableType = "review"
)

// Canonical collapses reply votes onto the comment ledger. Comments
// and replies share the content_nodes id space, so their votes share
// one votable type in storage.
func (t VotableType) Canonical() VotableType {
	if t == VotableTypeReply {
		return VotableTypeComment
	}
	return t
}

// VoteValue is the polarity of a vote.
type VoteValue string

const (
	VoteUp   VoteValue = "up"
	VoteDown VoteValue = "down"
)

// Vote is one user's current vote on one votable entity. The database
// enforces at most one row per (user_id, votable_id, votable_type).
type Vote struct {
	ID          int64       `json:"id" db:"id"`
	UserID      int64       `json:"user_id" db:"user_id"`
	VotableID   int64       `json:"votable_id" db:"votable_id"`
	VotableType VotableType `json:"votable_type" db:"votable_type"`
	Value       VoteValue   `json:"value" db:"value"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// VoteOutcome describes what a vote submission did.
type VoteOutcome string

const (
	VoteOutcomeCreated VoteOutcome = "created"
	VoteOutcomeUpdated VoteOutcome = "updated"
	VoteOutcomeRemoved VoteOutcome = "removed"
)

// VoteAggregate is a consistent snapshot of vote counts for one
// votable entity, produced by a single query.
type VoteAggregate struct {
	VotableID   int64       `json:"votable_id"`
	VotableType VotableType `json:"votable_type"`
	Upvotes     int         `json:"upvotes"`
	Downvotes   int         `json:"downvotes"`
	Score       int         `json:"score"`
}

// ===============================
// NOTIFICATIONS
// ===============================

// Notification is an in-app notification delivered to a user.
type Notification struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	ActorID   int64      `json:"actor_id" db:"actor_id"`
	Type      string     `json:"type" db:"type"`
	ThreadID  *int64     `json:"thread_id,omitempty" db:"thread_id"`
	NodeID    *int64     `json:"node_id,omitempty" db:"node_id"`
	Message   string     `json:"message" db:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`

	// Joined fields
	ActorUsername string `json:"actor_username" db:"actor_username"`
}

// ===============================
// SORTING
// ===============================

// SortOrder is the closed set of orderings for comment and review
// listings. Every ordering breaks remaining ties on id so a row's
// position is stable across requests.
type SortOrder string

const (
	SortRecent  SortOrder = "recent"
	SortOldest  SortOrder = "oldest"
	SortPopular SortOrder = "popular"
)

// ParseSortOrder maps a query-string value onto a SortOrder,
// defaulting to recent.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortRecent):
		return SortRecent, nil
	case string(SortOldest):
		return SortOldest, nil
	case string(SortPopular):
		return SortPopular, nil
	default:
		return "", fmt.Errorf("invalid sort order: %q", s)
	}
}

// ===============================
// PAGINATION
// ===============================

// PaginationParams carries offset pagination plus the ordering used by
// listing queries.
type PaginationParams struct {
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
	Sort    SortOrder `json:"sort"`
}

// Offset returns the row offset for the current page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PaginationMeta describes one page of a listing.
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPaginationMeta derives page metadata from params and a total row
// count.
func NewPaginationMeta(params PaginationParams, total int64) PaginationMeta {
	totalPages := int((total + int64(params.PerPage) - 1) / int64(params.PerPage))
	return PaginationMeta{
		CurrentPage: params.Page,
		PerPage:     params.PerPage,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrev:     params.Page > 1,
	}
}

// PaginatedResponse wraps one page of results with its metadata.
// Highlight is set on every request that carried a highlight target,
// even when the target could not be served.
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
	Highlight  *HighlightInfo `json:"highlight_info,omitempty"`
}

// HighlightInfo locates a highlighted item within a sorted listing.
// NaturalPage and PositionInPage are 1-based and omitted when the
// target is not part of the listing.
type HighlightInfo struct {
	TargetID           int64 `json:"target_id"`
	FoundInCurrentPage bool  `json:"found_in_current_page"`
	NaturalPage        int   `json:"natural_page,omitempty"`
	PositionInPage     int   `json:"position_in_page,omitempty"`

	// IncludedFromOtherPage is set when the target was prepended to
	// the page instead of sorting onto it.
	IncludedFromOtherPage bool `json:"included_from_other_page"`

	// FoundInReplies is set when the highlighted node is a reply and
	// the location refers to its parent comment.
	FoundInReplies bool   `json:"found_in_replies,omitempty"`
	ParentID       *int64 `json:"parent_id,omitempty"`
}

// ===============================
// VALIDATION HELPERS
// ===============================

// ValidateVotableType checks membership in the closed votable set.
func ValidateVotableType(t string) (VotableType, error) {
	switch VotableType(t) {
	case VotableTypeThread, VotableTypeComment, VotableTypeReply, VotableTypeReview:
		return VotableType(t), nil
	default:
		return "", fmt.Errorf("invalid votable type: %q", t)
	}
}

// ValidateVoteValue checks a vote polarity.
func ValidateVoteValue(v string) (VoteValue, error) {
	switch VoteValue(v) {
	case VoteUp, VoteDown:
		return VoteValue(v), nil
	default:
		return "", fmt.Errorf("invalid vote value: %q", v)
	}
}

// ContentValidator enforces length limits on free-form text fields.
func ContentValidator(field, content string, minLen, maxLen int) error {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minLen {
		return fmt.Errorf("%s must be at least %d characters", field, minLen)
	}
	if len(trimmed) > maxLen {
		return fmt.Errorf("%s cannot exceed %d characters", field, maxLen)
	}
	return nil
}
