// ===============================
// FILE: internal/handlers/api/v1/notifications/notifications_controller.go
// ===============================

// Package notifications exposes the in-app notification inbox.
package notifications

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"threadhub/internal/contextutils"
	"threadhub/internal/response"
	"threadhub/internal/services"
)

// NotificationsController handles notification endpoints.
type NotificationsController struct {
	services         *services.ServiceCollection
	logger           *zap.Logger
	responseBuilder  *response.Builder
	paginationParser *response.PaginationParser
}

// NewNotificationsController creates a notifications controller.
func NewNotificationsController(sc *services.ServiceCollection, logger *zap.Logger) *NotificationsController {
	return &NotificationsController{
		services:         sc,
		logger:           logger,
		responseBuilder:  response.NewBuilder(response.DefaultConfig(), logger),
		paginationParser: response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// List handles GET /api/v1/notifications.
func (c *NotificationsController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.GetUserID(r.Context())
	if !ok {
		c.responseBuilder.WriteUnauthorized(w, r, "authentication required")
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	result, err := c.services.GetNotificationService().ListNotifications(r.Context(), userID, params.Pagination)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// MarkRead handles PUT /api/v1/notifications/{notificationID}/read.
func (c *NotificationsController) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.GetUserID(r.Context())
	if !ok {
		c.responseBuilder.WriteUnauthorized(w, r, "authentication required")
		return
	}

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid notification id", nil)
		return
	}

	if err := c.services.GetNotificationService().MarkRead(r.Context(), notificationID, userID); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// MarkAllRead handles PUT /api/v1/notifications/read-all.
func (c *NotificationsController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.GetUserID(r.Context())
	if !ok {
		c.responseBuilder.WriteUnauthorized(w, r, "authentication required")
		return
	}

	if err := c.services.GetNotificationService().MarkAllRead(r.Context(), userID); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// CountUnread handles GET /api/v1/notifications/unread-count.
func (c *NotificationsController) CountUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.GetUserID(r.Context())
	if !ok {
		c.responseBuilder.WriteUnauthorized(w, r, "authentication required")
		return
	}

	count, err := c.services.GetNotificationService().CountUnread(r.Context(), userID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, map[string]int64{"unread": count})
}
