// ===============================
// FILE: internal/events/domain_events.go
// ===============================

package events

import "time"

const (
	EventCommentCreated = "comment.created"
	EventReplyCreated   = "comment.reply_created"
	EventVoteCast       = "vote.cast"
	EventReviewCreated  = "review.created"
	EventThreadCreated  = "thread.created"
)

// CommentCreatedEvent fires when a top-level comment is posted.
type CommentCreatedEvent struct {
	BaseEvent
	CommentID     int64 `json:"comment_id"`
	ThreadID      int64 `json:"thread_id"`
	ThreadOwnerID int64 `json:"thread_owner_id"`
}

// NewCommentCreatedEvent builds a comment.created event.
func NewCommentCreatedEvent(commentID, threadID, authorID, threadOwnerID int64) *CommentCreatedEvent {
	return &CommentCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   NewEventID(),
			EventType: EventCommentCreated,
			Timestamp: time.Now(),
			UserID:    &authorID,
		},
		CommentID:     commentID,
		ThreadID:      threadID,
		ThreadOwnerID: threadOwnerID,
	}
}

// ReplyCreatedEvent fires when a reply or nested reply is posted.
// TargetAuthorID is the author of the node that was replied to.
type ReplyCreatedEvent struct {
	BaseEvent
	ReplyID        int64 `json:"reply_id"`
	ParentID       int64 `json:"parent_id"`
	ThreadID       int64 `json:"thread_id"`
	TargetAuthorID int64 `json:"target_author_id"`
}

// NewReplyCreatedEvent builds a comment.reply_created event.
func NewReplyCreatedEvent(replyID, parentID, threadID, authorID, targetAuthorID int64) *ReplyCreatedEvent {
	return &ReplyCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   NewEventID(),
			EventType: EventReplyCreated,
			Timestamp: time.Now(),
			UserID:    &authorID,
		},
		ReplyID:        replyID,
		ParentID:       parentID,
		ThreadID:       threadID,
		TargetAuthorID: targetAuthorID,
	}
}

// VoteCastEvent fires on every vote submission, carrying the outcome.
type VoteCastEvent struct {
	BaseEvent
	VotableID   int64  `json:"votable_id"`
	VotableType string `json:"votable_type"`
	Value       string `json:"value"`
	Outcome     string `json:"outcome"`
	OwnerID     int64  `json:"owner_id"`
}

// NewVoteCastEvent builds a vote.cast event.
func NewVoteCastEvent(voterID, votableID int64, votableType, value, outcome string, ownerID int64) *VoteCastEvent {
	return &VoteCastEvent{
		BaseEvent: BaseEvent{
			EventID:   NewEventID(),
			EventType: EventVoteCast,
			Timestamp: time.Now(),
			UserID:    &voterID,
		},
		VotableID:   votableID,
		VotableType: votableType,
		Value:       value,
		Outcome:     outcome,
		OwnerID:     ownerID,
	}
}

// ReviewCreatedEvent fires when a review is posted.
type ReviewCreatedEvent struct {
	BaseEvent
	ReviewID      int64 `json:"review_id"`
	ThreadID      int64 `json:"thread_id"`
	ThreadOwnerID int64 `json:"thread_owner_id"`
	Rating        int   `json:"rating"`
}

// NewReviewCreatedEvent builds a review.created event.
func NewReviewCreatedEvent(reviewID, threadID, authorID, threadOwnerID int64, rating int) *ReviewCreatedEvent {
	return &ReviewCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   NewEventID(),
			EventType: EventReviewCreated,
			Timestamp: time.Now(),
			UserID:    &authorID,
		},
		ReviewID:      reviewID,
		ThreadID:      threadID,
		ThreadOwnerID: threadOwnerID,
		Rating:        rating,
	}
}

// ThreadCreatedEvent fires when a thread is opened.
type ThreadCreatedEvent struct {
	BaseEvent
	ThreadID int64  `json:"thread_id"`
	Title    string `json:"title"`
}

// NewThreadCreatedEvent builds a thread.created event.
func NewThreadCreatedEvent(threadID, authorID int64, title string) *ThreadCreatedEvent {
	return &ThreadCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   NewEventID(),
			EventType: EventThreadCreated,
			Timestamp: time.Now(),
			UserID:    &authorID,
		},
		ThreadID: threadID,
		Title:    title,
	}
}
