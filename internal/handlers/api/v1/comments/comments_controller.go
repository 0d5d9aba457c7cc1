// ===============================
// FILE: internal/handlers/api/v1/comments/comments_controller.go
// ===============================

// Package comments exposes the comment hierarchy endpoints: creating
// top-level comments, replies and nested replies, listing a thread's
// comments with highlight support, and locating a comment's page.
package comments

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"threadhub/internal/contextutils"
	"threadhub/internal/models"
	"threadhub/internal/response"
	"threadhub/internal/services"
)

// CommentsController handles comment endpoints.
type CommentsController struct {
	services         *services.ServiceCollection
	logger           *zap.Logger
	responseBuilder  *response.Builder
	paginationParser *response.PaginationParser
}

// NewCommentsController creates a comments controller.
func NewCommentsController(sc *services.ServiceCollection, logger *zap.Logger) *CommentsController {
	return &CommentsController{
		services:         sc,
		logger:           logger,
		responseBuilder:  response.NewBuilder(response.DefaultConfig(), logger),
		paginationParser: response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

type createCommentBody struct {
	Body string `json:"body"`
}

type updateNodeBody struct {
	Body string `json:"body"`
}

// CreateComment handles POST /api/v1/threads/{threadID}/comments.
func (c *CommentsController) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	var body createCommentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	node, err := c.services.GetCommentService().CreateComment(r.Context(), &services.CreateCommentRequest{
		ThreadID: threadID,
		UserID:   userID,
		Username: username,
		Body:     body.Body,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteCreated(w, r, node)
}

// CreateReply handles POST /api/v1/comments/{commentID}/replies.
// The target must be a top-level comment.
func (c *CommentsController) CreateReply(w http.ResponseWriter, r *http.Request) {
	c.createReply(w, r, c.services.GetCommentService().CreateReply)
}

// CreateNestedReply handles POST /api/v1/comments/{commentID}/nested-replies.
// The target must itself be a reply; the new reply lands in the same
// flattened group and records who it answered.
func (c *CommentsController) CreateNestedReply(w http.ResponseWriter, r *http.Request) {
	c.createReply(w, r, c.services.GetCommentService().CreateNestedReply)
}

type replyFunc func(ctx context.Context, req *services.CreateReplyRequest) (*models.ContentNode, error)

func (c *CommentsController) createReply(w http.ResponseWriter, r *http.Request, create replyFunc) {
	userID, username, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	targetID, err := pathID(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid comment id", nil)
		return
	}

	var body createCommentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	node, err := create(r.Context(), &services.CreateReplyRequest{
		TargetID: targetID,
		UserID:   userID,
		Username: username,
		Body:     body.Body,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteCreated(w, r, node)
}

// ListComments handles GET /api/v1/threads/{threadID}/comments.
// Supports page, per_page, sort and highlight query parameters. When
// a highlight falls outside the requested page it is prepended to the
// page data and flagged.
func (c *CommentsController) ListComments(w http.ResponseWriter, r *http.Request) {
	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	req := &services.ListCommentsRequest{
		ThreadID:    threadID,
		AuthorID:    params.AuthorID,
		Pagination:  params.Pagination,
		HighlightID: params.HighlightID,
	}
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		req.UserID = &userID
	}

	result, err := c.services.GetCommentService().ListComments(r.Context(), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// LocateComment handles GET /api/v1/threads/{threadID}/comments/{commentID}/locate.
// It returns the natural page and in-page position of a comment under
// the given sort order and page size, stepping up to the parent when
// the target is a reply.
func (c *CommentsController) LocateComment(w http.ResponseWriter, r *http.Request) {
	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}
	commentID, err := pathID(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid comment id", nil)
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	info, err := c.services.GetCommentService().LocateComment(r.Context(), &services.LocateCommentRequest{
		ThreadID: threadID,
		AuthorID: params.AuthorID,
		TargetID: commentID,
		PerPage:  params.Pagination.PerPage,
		Sort:     params.Pagination.Sort,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, info)
}

// GetNode handles GET /api/v1/comments/{commentID}.
func (c *CommentsController) GetNode(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathID(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid comment id", nil)
		return
	}

	var viewerID *int64
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		viewerID = &userID
	}

	node, err := c.services.GetCommentService().GetNode(r.Context(), commentID, viewerID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, node)
}

// UpdateNode handles PUT /api/v1/comments/{commentID}.
func (c *CommentsController) UpdateNode(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	commentID, err := pathID(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid comment id", nil)
		return
	}

	var body updateNodeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	node, err := c.services.GetCommentService().UpdateNode(r.Context(), &services.UpdateNodeRequest{
		NodeID: commentID,
		UserID: userID,
		Body:   body.Body,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, node)
}

// DeleteNode handles DELETE /api/v1/comments/{commentID}.
func (c *CommentsController) DeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	commentID, err := pathID(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid comment id", nil)
		return
	}

	if err := c.services.GetCommentService().DeleteNode(r.Context(), commentID, userID); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

func (c *CommentsController) requireAuth(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	userID, ok := contextutils.GetUserID(r.Context())
	if !ok {
		c.responseBuilder.WriteUnauthorized(w, r, "authentication required")
		return 0, "", false
	}
	username := contextutils.GetUsername(r.Context())
	return userID, username, true
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
