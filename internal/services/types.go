// ===============================
// FILE: internal/services/types.go
// ===============================

package services

import (
	"context"

	"threadhub/internal/models"
)

// ===============================
// SERVICE INTERFACES
// ===============================

// CommentService manages the two-level comment hierarchy of a thread.
type CommentService interface {
	// CreateComment posts a top-level comment on a thread.
	CreateComment(ctx context.Context, req *CreateCommentRequest) (*models.ContentNode, error)

	// CreateReply replies to a top-level comment. Replying to a reply
	// through this operation is an invalid target.
	CreateReply(ctx context.Context, req *CreateReplyRequest) (*models.ContentNode, error)

	// CreateNestedReply replies to a reply. The new node is flattened
	// under the target's top-level comment and records which reply it
	// addressed.
	CreateNestedReply(ctx context.Context, req *CreateReplyRequest) (*models.ContentNode, error)

	GetNode(ctx context.Context, nodeID int64, userID *int64) (*models.ContentNode, error)
	UpdateNode(ctx context.Context, req *UpdateNodeRequest) (*models.ContentNode, error)
	DeleteNode(ctx context.Context, nodeID, userID int64) error

	// ListComments serves one page of a thread's comments with their
	// replies attached. A highlight id forces that comment onto the
	// page.
	ListComments(ctx context.Context, req *ListCommentsRequest) (*models.PaginatedResponse[*models.ContentNode], error)

	// LocateComment reports which page and position a node naturally
	// occupies. Replies resolve to their parent comment's position.
	LocateComment(ctx context.Context, req *LocateCommentRequest) (*models.HighlightInfo, error)
}

// VoteService manages vote submissions and aggregates.
type VoteService interface {
	// CastVote toggles a user's vote and returns the outcome with a
	// fresh aggregate snapshot.
	CastVote(ctx context.Context, req *CastVoteRequest) (*VoteResponse, error)

	GetAggregate(ctx context.Context, votableID int64, votableType models.VotableType) (*models.VoteAggregate, error)
}

// ThreadService manages discussion threads.
type ThreadService interface {
	CreateThread(ctx context.Context, req *CreateThreadRequest) (*models.Thread, error)
	GetThread(ctx context.Context, threadID int64, userID *int64) (*models.Thread, error)
	UpdateThread(ctx context.Context, req *UpdateThreadRequest) (*models.Thread, error)
	DeleteThread(ctx context.Context, threadID, userID int64) error
	LockThread(ctx context.Context, threadID, userID int64, locked bool) error
	ListThreads(ctx context.Context, req *ListThreadsRequest) (*models.PaginatedResponse[*models.Thread], error)
}

// ReviewService manages thread reviews with the same highlighted
// pagination as comments.
type ReviewService interface {
	CreateReview(ctx context.Context, req *CreateReviewRequest) (*models.Review, error)
	GetReview(ctx context.Context, reviewID int64, userID *int64) (*models.Review, error)
	UpdateReview(ctx context.Context, req *UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, reviewID, userID int64) error
	ListReviews(ctx context.Context, req *ListReviewsRequest) (*models.PaginatedResponse[*models.Review], error)
	LocateReview(ctx context.Context, req *LocateReviewRequest) (*models.HighlightInfo, error)
	GetRatingSummary(ctx context.Context, threadID int64) (*RatingSummary, error)
}

// NotificationService serves in-app notifications and reacts to
// domain events.
type NotificationService interface {
	ListNotifications(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Notification], error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

// ===============================
// COMMENT REQUESTS
// ===============================

// CreateCommentRequest posts a top-level comment.
type CreateCommentRequest struct {
	ThreadID int64  `json:"thread_id" validate:"required,gt=0"`
	UserID   int64  `json:"-"`
	Username string `json:"-"`
	Body     string `json:"body" validate:"required,min=1,max=10000"`
}

// CreateReplyRequest posts a reply addressed at TargetID.
type CreateReplyRequest struct {
	TargetID int64  `json:"-"`
	UserID   int64  `json:"-"`
	Username string `json:"-"`
	Body     string `json:"body" validate:"required,min=1,max=10000"`
}

// UpdateNodeRequest edits a node's body.
type UpdateNodeRequest struct {
	NodeID int64  `json:"-"`
	UserID int64  `json:"-"`
	Body   string `json:"body" validate:"required,min=1,max=10000"`
}

// ListCommentsRequest pages through a thread's comments. AuthorID
// optionally narrows the listing to one author's top-level comments.
type ListCommentsRequest struct {
	ThreadID    int64                   `json:"-"`
	AuthorID    *int64                  `json:"-"`
	Pagination  models.PaginationParams `json:"-"`
	HighlightID *int64                  `json:"-"`
	UserID      *int64                  `json:"-"`
}

// LocateCommentRequest asks where a node sits in its thread listing.
// With AuthorID set, a target outside that author's listing is not
// found.
type LocateCommentRequest struct {
	ThreadID int64            `json:"-"`
	AuthorID *int64           `json:"-"`
	TargetID int64            `json:"-"`
	PerPage  int              `json:"-"`
	Sort     models.SortOrder `json:"-"`
}

// ===============================
// VOTE REQUESTS
// ===============================

// CastVoteRequest submits a vote.
type CastVoteRequest struct {
	UserID      int64              `json:"-"`
	VotableID   int64              `json:"votable_id" validate:"required,gt=0"`
	VotableType models.VotableType `json:"votable_type" validate:"required"`
	Value       models.VoteValue   `json:"value" validate:"required"`
}

// VoteResponse reports what a submission did plus the counts after.
type VoteResponse struct {
	Outcome   models.VoteOutcome    `json:"outcome"`
	Aggregate *models.VoteAggregate `json:"aggregate"`
}

// ===============================
// THREAD REQUESTS
// ===============================

// CreateThreadRequest opens a thread.
type CreateThreadRequest struct {
	UserID   int64   `json:"-"`
	Username string  `json:"-"`
	Title    string  `json:"title" validate:"required,min=3,max=255"`
	Body     string  `json:"body" validate:"required,min=1,max=50000"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=50"`
}

// UpdateThreadRequest edits a thread.
type UpdateThreadRequest struct {
	ThreadID int64   `json:"-"`
	UserID   int64   `json:"-"`
	Title    string  `json:"title" validate:"required,min=3,max=255"`
	Body     string  `json:"body" validate:"required,min=1,max=50000"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=50"`
}

// ListThreadsRequest pages through threads.
type ListThreadsRequest struct {
	Pagination models.PaginationParams `json:"-"`
	Category   *string                 `json:"-"`
	UserID     *int64                  `json:"-"`
}

// ===============================
// REVIEW REQUESTS
// ===============================

// CreateReviewRequest posts a review on a thread.
type CreateReviewRequest struct {
	ThreadID int64  `json:"thread_id" validate:"required,gt=0"`
	UserID   int64  `json:"-"`
	Username string `json:"-"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Body     string `json:"body" validate:"required,min=1,max=10000"`
}

// UpdateReviewRequest edits a review.
type UpdateReviewRequest struct {
	ReviewID int64  `json:"-"`
	UserID   int64  `json:"-"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Body     string `json:"body" validate:"required,min=1,max=10000"`
}

// ListReviewsRequest pages one review listing. ThreadID scopes a
// thread's reviews, AuthorID an author's profile reviews; at least
// one must be set and both may be combined.
type ListReviewsRequest struct {
	ThreadID    *int64                  `json:"-"`
	AuthorID    *int64                  `json:"-"`
	Pagination  models.PaginationParams `json:"-"`
	HighlightID *int64                  `json:"-"`
	UserID      *int64                  `json:"-"`
}

// LocateReviewRequest asks where a review sits in a listing scoped
// the same way as ListReviewsRequest.
type LocateReviewRequest struct {
	ThreadID *int64           `json:"-"`
	AuthorID *int64           `json:"-"`
	TargetID int64            `json:"-"`
	PerPage  int              `json:"-"`
	Sort     models.SortOrder `json:"-"`
}

// RatingSummary aggregates a thread's review ratings.
type RatingSummary struct {
	ThreadID      int64   `json:"thread_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}
