// ===============================
// FILE: internal/services/comment_service.go
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

type commentService struct {
	repos    *repositories.Collection
	bus      events.EventBus
	logger   *zap.Logger
	validate *validator.Validate
}

// NewCommentService creates the comment service.
func NewCommentService(repos *repositories.Collection, bus events.EventBus, logger *zap.Logger) CommentService {
	return &commentService{
		repos:    repos,
		bus:      bus,
		logger:   logger,
		validate: validator.New(),
	}
}

// ===============================
// CREATION
// ===============================

func (s *commentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*models.ContentNode, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid comment data", err)
	}

	thread, err := s.repos.Threads.GetByID(ctx, req.ThreadID, nil)
	if err != nil {
		return nil, s.mapThreadErr(err, req.ThreadID)
	}
	if thread.IsLocked {
		return nil, NewBusinessError("thread is locked", "THREAD_LOCKED")
	}

	if _, err := s.repos.Users.EnsureExists(ctx, req.UserID, req.Username); err != nil {
		return nil, NewInternalError("failed to resolve author", err)
	}

	node := &models.ContentNode{
		Kind:     models.NodeKindComment,
		ThreadID: req.ThreadID,
		UserID:   req.UserID,
		Body:     req.Body,
	}
	if err := s.repos.Content.Create(ctx, node); err != nil {
		return nil, NewInternalError("failed to create comment", err)
	}

	s.logger.Info("comment created",
		zap.Int64("comment_id", node.ID),
		zap.Int64("thread_id", req.ThreadID),
		zap.Int64("user_id", req.UserID),
	)

	s.bus.PublishAsync(ctx, events.NewCommentCreatedEvent(node.ID, thread.ID, req.UserID, thread.UserID))

	return s.GetNode(ctx, node.ID, &req.UserID)
}

// CreateReply posts a first-level reply. The target must be a
// top-level comment.
func (s *commentService) CreateReply(ctx context.Context, req *CreateReplyRequest) (*models.ContentNode, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid reply data", err)
	}

	target, err := s.repos.Content.GetByID(ctx, req.TargetID, nil)
	if err != nil {
		return nil, s.mapNodeErr(err, req.TargetID)
	}
	if !target.IsTopLevel() {
		return nil, NewInvalidTargetError("replies can only target top-level comments")
	}

	return s.createReplyNode(ctx, req, target, target.ID, nil)
}

// CreateNestedReply posts a reply to a reply. However deep the chain
// goes, the new node is flattened under the original top-level reply
// and records the immediate target it addressed.
func (s *commentService) CreateNestedReply(ctx context.Context, req *CreateReplyRequest) (*models.ContentNode, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid reply data", err)
	}

	target, err := s.repos.Content.GetByID(ctx, req.TargetID, nil)
	if err != nil {
		return nil, s.mapNodeErr(err, req.TargetID)
	}
	if !target.IsReply() {
		return nil, NewInvalidTargetError("nested replies can only target replies")
	}

	// Flattening: the new node always hangs under the top-level reply.
	// A first-level reply (nil reply_to) is that top-level reply; a
	// nested one already points at it through its parent.
	parentID := target.ID
	if target.ReplyToID != nil && target.ParentID != nil {
		parentID = *target.ParentID
	}
	replyToID := target.ID

	return s.createReplyNode(ctx, req, target, parentID, &replyToID)
}

func (s *commentService) createReplyNode(ctx context.Context, req *CreateReplyRequest, target *models.ContentNode, parentID int64, replyToID *int64) (*models.ContentNode, error) {
	thread, err := s.repos.Threads.GetByID(ctx, target.ThreadID, nil)
	if err != nil {
		return nil, s.mapThreadErr(err, target.ThreadID)
	}
	if thread.IsLocked {
		return nil, NewBusinessError("thread is locked", "THREAD_LOCKED")
	}

	if _, err := s.repos.Users.EnsureExists(ctx, req.UserID, req.Username); err != nil {
		return nil, NewInternalError("failed to resolve author", err)
	}

	node := &models.ContentNode{
		Kind:      models.NodeKindReply,
		ThreadID:  target.ThreadID,
		UserID:    req.UserID,
		ParentID:  &parentID,
		ReplyToID: replyToID,
		Body:      req.Body,
	}
	if err := s.repos.Content.Create(ctx, node); err != nil {
		return nil, NewInternalError("failed to create reply", err)
	}

	s.logger.Info("reply created",
		zap.Int64("reply_id", node.ID),
		zap.Int64("parent_id", parentID),
		zap.Int64("thread_id", target.ThreadID),
		zap.Int64("user_id", req.UserID),
	)

	s.bus.PublishAsync(ctx, events.NewReplyCreatedEvent(node.ID, parentID, target.ThreadID, req.UserID, target.UserID))

	return s.GetNode(ctx, node.ID, &req.UserID)
}

// ===============================
// READ, UPDATE, DELETE
// ===============================

func (s *commentService) GetNode(ctx context.Context, nodeID int64, userID *int64) (*models.ContentNode, error) {
	node, err := s.repos.Content.GetByID(ctx, nodeID, userID)
	if err != nil {
		return nil, s.mapNodeErr(err, nodeID)
	}
	if userID != nil {
		node.IsOwner = node.UserID == *userID
	}
	return node, nil
}

func (s *commentService) UpdateNode(ctx context.Context, req *UpdateNodeRequest) (*models.ContentNode, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid content", err)
	}

	node, err := s.repos.Content.GetByID(ctx, req.NodeID, &req.UserID)
	if err != nil {
		return nil, s.mapNodeErr(err, req.NodeID)
	}
	if node.UserID != req.UserID {
		return nil, NewAuthorizationError(req.UserID, "comment", "edit")
	}

	node.Body = req.Body
	if err := s.repos.Content.Update(ctx, node); err != nil {
		return nil, NewInternalError("failed to update comment", err)
	}

	node.IsOwner = true
	return node, nil
}

func (s *commentService) DeleteNode(ctx context.Context, nodeID, userID int64) error {
	node, err := s.repos.Content.GetByID(ctx, nodeID, nil)
	if err != nil {
		return s.mapNodeErr(err, nodeID)
	}
	if node.UserID != userID {
		return NewAuthorizationError(userID, "comment", "delete")
	}

	if err := s.repos.Content.Delete(ctx, nodeID); err != nil {
		return NewInternalError("failed to delete comment", err)
	}

	s.logger.Info("comment deleted",
		zap.Int64("node_id", nodeID),
		zap.Int64("user_id", userID),
	)
	return nil
}

// ===============================
// LISTING AND HIGHLIGHTING
// ===============================

// ListComments pages through a thread's top-level comments, attaches
// each comment's replies, and guarantees a highlighted comment is on
// the served page. A highlight pointing at a reply steps up to the
// reply's parent comment.
func (s *commentService) ListComments(ctx context.Context, req *ListCommentsRequest) (*models.PaginatedResponse[*models.ContentNode], error) {
	if req.Pagination.Page < 1 || req.Pagination.PerPage < 1 {
		return nil, NewValidationError("page and per_page must be positive", nil)
	}

	if _, err := s.repos.Threads.GetByID(ctx, req.ThreadID, nil); err != nil {
		return nil, s.mapThreadErr(err, req.ThreadID)
	}

	// A highlight that no longer exists, belongs to another thread, or
	// fails the author filter is dropped rather than failing the
	// listing. A reply highlight steps up to its parent comment.
	highlightID := req.HighlightID
	if highlightID != nil {
		effective, err := s.resolveHighlightTarget(ctx, req.ThreadID, *highlightID)
		switch {
		case IsNotFoundError(err):
			highlightID = nil
		case err != nil:
			return nil, err
		default:
			highlightID = &effective
		}
	}

	src := &commentSource{svc: s, threadID: req.ThreadID, authorID: req.AuthorID, userID: req.UserID}
	paginator := highlight.NewPaginator[*models.ContentNode](src)

	page, err := paginator.Page(ctx, req.Pagination, highlightID)
	if err != nil {
		if svcErr, ok := GetServiceError(err); ok {
			return nil, svcErr
		}
		return nil, NewInternalError("failed to page comments", err)
	}

	if req.HighlightID != nil {
		switch {
		case page.Highlight == nil:
			page.Highlight = &models.HighlightInfo{TargetID: *req.HighlightID}
		case *req.HighlightID != page.Highlight.TargetID:
			// The served location belongs to the reply's parent.
			parentID := page.Highlight.TargetID
			page.Highlight.TargetID = *req.HighlightID
			if page.Highlight.FoundInCurrentPage || page.Highlight.IncludedFromOtherPage {
				page.Highlight.FoundInReplies = true
				page.Highlight.ParentID = &parentID
			}
		}
	}

	if err := s.attachReplies(ctx, page.Data, req.UserID); err != nil {
		return nil, err
	}

	if req.UserID != nil {
		markOwnership(page.Data, *req.UserID)
	}

	return page, nil
}

// LocateComment reports the natural page and position of a node. For
// replies the location refers to the parent comment, with the
// found-in-replies marker set.
func (s *commentService) LocateComment(ctx context.Context, req *LocateCommentRequest) (*models.HighlightInfo, error) {
	if req.PerPage < 1 {
		return nil, NewValidationError("per_page must be positive", nil)
	}

	node, err := s.repos.Content.GetByID(ctx, req.TargetID, nil)
	if err != nil {
		return nil, s.mapNodeErr(err, req.TargetID)
	}
	if node.ThreadID != req.ThreadID {
		return nil, EntityNotFoundError("comment", req.TargetID)
	}

	locateID := node.ID
	foundInReplies := false
	var parentID *int64
	if node.IsReply() {
		commentID, err := s.topLevelCommentOf(ctx, node)
		if err != nil {
			return nil, err
		}
		locateID = commentID
		foundInReplies = true
		parentID = &commentID
	}

	if req.AuthorID != nil {
		top := node
		if locateID != node.ID {
			if top, err = s.repos.Content.GetByID(ctx, locateID, nil); err != nil {
				return nil, s.mapNodeErr(err, locateID)
			}
		}
		if top.UserID != *req.AuthorID {
			return nil, EntityNotFoundError("comment", req.TargetID)
		}
	}

	src := &commentSource{svc: s, threadID: req.ThreadID, authorID: req.AuthorID}
	locator := highlight.NewLocator[*models.ContentNode](src)

	info, err := locator.Locate(ctx, locateID, req.PerPage, req.Sort)
	if err != nil {
		if errors.Is(err, highlight.ErrNotFound) {
			return nil, EntityNotFoundError("comment", req.TargetID)
		}
		return nil, NewInternalError("failed to locate comment", err)
	}

	info.TargetID = req.TargetID
	info.FoundInReplies = foundInReplies
	info.ParentID = parentID
	return info, nil
}

// resolveHighlightTarget maps a highlight id onto the top-level
// comment that must appear on the page.
func (s *commentService) resolveHighlightTarget(ctx context.Context, threadID, highlightID int64) (int64, error) {
	node, err := s.repos.Content.GetByID(ctx, highlightID, nil)
	if err != nil {
		return 0, s.mapNodeErr(err, highlightID)
	}
	if node.ThreadID != threadID {
		return 0, EntityNotFoundError("comment", highlightID)
	}
	if node.IsReply() {
		return s.topLevelCommentOf(ctx, node)
	}
	return node.ID, nil
}

// topLevelCommentOf resolves the top-level comment a reply hangs
// under: one hop for first-level replies, two for nested ones.
func (s *commentService) topLevelCommentOf(ctx context.Context, node *models.ContentNode) (int64, error) {
	if node.ParentID == nil {
		return 0, NewInternalError("reply has no parent", nil)
	}
	if node.ReplyToID == nil {
		return *node.ParentID, nil
	}
	topReply, err := s.repos.Content.GetByID(ctx, *node.ParentID, nil)
	if err != nil {
		return 0, s.mapNodeErr(err, *node.ParentID)
	}
	if topReply.ParentID == nil {
		return 0, NewInternalError("reply has no parent", nil)
	}
	return *topReply.ParentID, nil
}

func (s *commentService) attachReplies(ctx context.Context, comments []*models.ContentNode, userID *int64) error {
	if len(comments) == 0 {
		return nil
	}

	commentIDs := make([]int64, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}

	firstLevel, err := s.repos.Content.ListRepliesByParents(ctx, commentIDs, userID)
	if err != nil {
		return NewInternalError("failed to load replies", err)
	}

	var replyIDs []int64
	for _, c := range comments {
		c.Replies = firstLevel[c.ID]
		for _, r := range c.Replies {
			replyIDs = append(replyIDs, r.ID)
		}
	}
	if len(replyIDs) == 0 {
		return nil
	}

	// Second batch picks up the nested replies flattened under each
	// top-level reply.
	nested, err := s.repos.Content.ListRepliesByParents(ctx, replyIDs, userID)
	if err != nil {
		return NewInternalError("failed to load replies", err)
	}
	for _, c := range comments {
		for _, r := range c.Replies {
			r.Replies = nested[r.ID]
		}
	}
	return nil
}

func markOwnership(comments []*models.ContentNode, userID int64) {
	for _, c := range comments {
		c.IsOwner = c.UserID == userID
		for _, r := range c.Replies {
			r.IsOwner = r.UserID == userID
			for _, n := range r.Replies {
				n.IsOwner = n.UserID == userID
			}
		}
	}
}

// ===============================
// ERROR MAPPING
// ===============================

func (s *commentService) mapNodeErr(err error, id int64) error {
	return mapNotFound(err, "comment", id)
}

func (s *commentService) mapThreadErr(err error, id int64) error {
	return mapNotFound(err, "thread", id)
}

// ===============================
// HIGHLIGHT SOURCE
// ===============================

// commentSource adapts the content repository to the highlight
// engine, scoped to one thread's top-level comments.
type commentSource struct {
	svc      *commentService
	threadID int64
	authorID *int64
	userID   *int64
}

func (src *commentSource) CountBefore(ctx context.Context, targetID int64, sort models.SortOrder) (int64, error) {
	return src.svc.repos.Content.CountBefore(ctx, src.threadID, targetID, src.authorID, sort)
}

func (src *commentSource) FetchPage(ctx context.Context, params models.PaginationParams) ([]*models.ContentNode, int64, error) {
	return src.svc.repos.Content.ListTopLevel(ctx, src.threadID, src.authorID, params, src.userID)
}

func (src *commentSource) FetchByID(ctx context.Context, id int64) (*models.ContentNode, error) {
	node, err := src.svc.repos.Content.GetByID(ctx, id, src.userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %d: %w", id, highlight.ErrNotFound)
		}
		return nil, err
	}
	if node.ThreadID != src.threadID || !node.IsTopLevel() {
		return nil, fmt.Errorf("comment %d not in thread %d listing: %w", id, src.threadID, highlight.ErrNotFound)
	}
	if src.authorID != nil && node.UserID != *src.authorID {
		return nil, fmt.Errorf("comment %d not by author %d: %w", id, *src.authorID, highlight.ErrNotFound)
	}
	return node, nil
}
