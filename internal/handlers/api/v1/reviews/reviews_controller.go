// ===============================
// FILE: internal/handlers/api/v1/reviews/reviews_controller.go
// ===============================

// Package reviews exposes thread review endpoints, including the
// highlighted listing and locate operations shared with comments.
package reviews

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

// ReviewsController handles review endpoints.
type ReviewsController struct {
	services         *services.ServiceCollection
	logger           *zap.Logger
	responseBuilder  *response.Builder
	paginationParser *response.PaginationParser
}

// NewReviewsController creates a reviews controller.
func NewReviewsController(sc *services.ServiceCollection, logger *zap.Logger) *ReviewsController {
	return &ReviewsController{
		services:         sc,
		logger:           logger,
		responseBuilder:  response.NewBuilder(response.DefaultConfig(), logger),
		paginationParser: response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

type reviewBody struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// CreateReview handles POST /api/v1/threads/{threadID}/reviews.
func (c *ReviewsController) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	var body reviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	review, err := c.services.GetReviewService().CreateReview(r.Context(), &services.CreateReviewRequest{
		ThreadID: threadID,
		UserID:   userID,
		Username: username,
		Rating:   body.Rating,
		Body:     body.Body,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteCreated(w, r, review)
}

// ListReviews handles GET /api/v1/threads/{threadID}/reviews with the
// same page, per_page, sort and highlight parameters as comments.
func (c *ReviewsController) ListReviews(w http.ResponseWriter, r *http.Request) {
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

	req := &services.ListReviewsRequest{
		ThreadID:    &threadID,
		AuthorID:    params.AuthorID,
		Pagination:  params.Pagination,
		HighlightID: params.HighlightID,
	}
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		req.UserID = &userID
	}

	result, err := c.services.GetReviewService().ListReviews(r.Context(), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// LocateReview handles GET /api/v1/threads/{threadID}/reviews/{reviewID}/locate.
func (c *ReviewsController) LocateReview(w http.ResponseWriter, r *http.Request) {
	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid review id", nil)
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	info, err := c.services.GetReviewService().LocateReview(r.Context(), &services.LocateReviewRequest{
		ThreadID: &threadID,
		AuthorID: params.AuthorID,
		TargetID: reviewID,
		PerPage:  params.Pagination.PerPage,
		Sort:     params.Pagination.Sort,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, info)
}

// ListAuthorReviews handles GET /api/v1/users/{userID}/reviews, the
// profile-page listing of one author's reviews across threads.
func (c *ReviewsController) ListAuthorReviews(w http.ResponseWriter, r *http.Request) {
	authorID, err := pathID(r, "userID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid user id", nil)
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	req := &services.ListReviewsRequest{
		AuthorID:    &authorID,
		Pagination:  params.Pagination,
		HighlightID: params.HighlightID,
	}
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		req.UserID = &userID
	}

	result, err := c.services.GetReviewService().ListReviews(r.Context(), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// LocateAuthorReview handles GET /api/v1/users/{userID}/reviews/{reviewID}/locate.
func (c *ReviewsController) LocateAuthorReview(w http.ResponseWriter, r *http.Request) {
	authorID, err := pathID(r, "userID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid user id", nil)
		return
	}
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid review id", nil)
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	info, err := c.services.GetReviewService().LocateReview(r.Context(), &services.LocateReviewRequest{
		AuthorID: &authorID,
		TargetID: reviewID,
		PerPage:  params.Pagination.PerPage,
		Sort:     params.Pagination.Sort,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, info)
}

// GetRatingSummary handles GET /api/v1/threads/{threadID}/reviews/summary.
func (c *ReviewsController) GetRatingSummary(w http.ResponseWriter, r *http.Request) {
	threadID, err := pathID(r, "threadID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid thread id", nil)
		return
	}

	summary, err := c.services.GetReviewService().GetRatingSummary(r.Context(), threadID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, summary)
}

// GetReview handles GET /api/v1/reviews/{reviewID}.
func (c *ReviewsController) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid review id", nil)
		return
	}

	var viewerID *int64
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		viewerID = &userID
	}

	review, err := c.services.GetReviewService().GetReview(r.Context(), reviewID, viewerID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, review)
}

// UpdateReview handles PUT /api/v1/reviews/{reviewID}.
func (c *ReviewsController) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid review id", nil)
		return
	}

	var body reviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	review, err := c.services.GetReviewService().UpdateReview(r.Context(), &services.UpdateReviewRequest{
		ReviewID: reviewID,
		UserID:   userID,
		Rating:   body.Rating,
		Body:     body.Body,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, review)
}

// DeleteReview handles DELETE /api/v1/reviews/{reviewID}.
func (c *ReviewsController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := c.requireAuth(w, r)
	if !ok {
		return
	}

	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid review id", nil)
		return
	}

	if err := c.services.GetReviewService().DeleteReview(r.Context(), reviewID, userID); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

func (c *ReviewsController) requireAuth(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
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
