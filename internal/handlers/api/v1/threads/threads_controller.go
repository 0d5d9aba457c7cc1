// ===============================
// FILE: internal/handlers/api/v1/threads/threads_controller.go
// ===============================

// Package threads exposes thread CRUD, locking and listing endpoints.
package threads

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"threadhub/internal/contextutils"
	"threadhub/internal/response"
	"threadhub/internal/services"
)

// ThreadsController handles thread endpoints.
type ThreadsController struct {
	services         *services.ServiceCollection
	logger           *zap.Logger
	responseBuilder  *response.Builder
	paginationParser *response.PaginationParser
}

// NewThreadsController creates a threads controller.
func NewThreadsController(sc *services.ServiceCollection, logger *zap.Logger) *ThreadsController {
	return &ThreadsController{
		services:         sc,
		logger:           logger,
		responseBuilder:  response.NewBuilder(response.DefaultConfig(), logger),
		paginationParser: response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

type threadBody struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Category *string `json:"category,omitempty"`
}

type lockBody struct {
	Locked bool `json:"locked"`
}

// CreateThread handles POST /api/v1/threads.
func (c *ThreadsController) CreateThread(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	var body threadBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	thread, err := c.services.GetThreadService().CreateThread(r.Context(), &services.CreateThreadRequest{
		UserID:   userID,
		Username: username,
		Title:    body.Title,
		Body:     body.Body,
		Category: body.Category,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteCreated(w, r, thread)
}

// GetThread handles GET /api/v1/threads/{threadID}.
func (c *ThreadsController) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	var viewerID *int64
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		viewerID = &userID
	}

	thread, err := c.services.GetThreadService().GetThread(r.Context(), threadID, viewerID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, thread)
}

// UpdateThread handles PUT /api/v1/threads/{threadID}.
func (c *ThreadsController) UpdateThread(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	var body threadBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	thread, err := c.services.GetThreadService().UpdateThread(r.Context(), &services.UpdateThreadRequest{
		ThreadID: threadID,
		UserID:   userID,
		Title:    body.Title,
		Body:     body.Body,
		Category: body.Category,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, thread)
}

// DeleteThread handles DELETE /api/v1/threads/{threadID}.
func (c *ThreadsController) DeleteThread(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	if err := c.services.GetThreadService().DeleteThread(r.Context(), threadID, userID); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// LockThread handles PUT /api/v1/threads/{threadID}/lock.
func (c *ThreadsController) LockThread(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	var body lockBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	if err := c.services.GetThreadService().LockThread(r.Context(), threadID, userID, body.Locked); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// ListThreads handles GET /api/v1/threads.
func (c *ThreadsController) ListThreads(w http.ResponseWriter, r *http.Request) {
	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	req := &services.ListThreadsRequest{Pagination: params.Pagination}
	if category := r.URL.Query().Get("category"); category != "" {
		req.Category = &category
	}
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		req.UserID = &userID
	}

	result, err := c.services.GetThreadService().ListThreads(r.Context(), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

func (c *ThreadsController) requireAuth(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
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
