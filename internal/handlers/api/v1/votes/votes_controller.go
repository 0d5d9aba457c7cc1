// ===============================
// FILE: internal/handlers/api/v1/votes/votes_controller.go
// ===============================

// Package votes exposes the vote toggle and aggregate endpoints.
package votes

import (
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

// VotesController handles vote endpoints.
type VotesController struct {
	services        *services.ServiceCollection
	logger          *zap.Logger
	responseBuilder *response.Builder
}

// NewVotesController creates a votes controller.
func NewVotesController(sc *services.ServiceCollection, logger *zap.Logger) *VotesController {
	return &VotesController{
		services:        sc,
		logger:          logger,
		responseBuilder: response.NewBuilder(response.DefaultConfig(), logger),
	}
}

type castVoteBody struct {
	VotableID   int64  `json:"votable_id"`
	VotableType string `json:"votable_type"`
	Value       string `json:"value"`
}

// CastVote handles POST /api/v1/votes. Submitting the same vote twice
// removes it; submitting the opposite polarity flips it.
func (c *VotesController) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := contextutils.GetUserID(r.Context())
	if !ok {
		c.responseBuilder.WriteUnauthorized(w, r, "authentication required")
		return
	}

	var body castVoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid request body", nil)
		return
	}

	result, err := c.services.GetVoteService().CastVote(r.Context(), &services.CastVoteRequest{
		UserID:      userID,
		VotableID:   body.VotableID,
		VotableType: models.VotableType(body.VotableType),
		Value:       models.VoteValue(body.Value),
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// GetAggregate handles GET /api/v1/votes/{votableType}/{votableID}.
func (c *VotesController) GetAggregate(w http.ResponseWriter, r *http.Request) {
	votableType, err := models.ValidateVotableType(chi.URLParam(r, "votableType"))
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid votable type", nil)
		return
	}

	votableID, err := strconv.ParseInt(chi.URLParam(r, "votableID"), 10, 64)
	if err != nil {
		c.responseBuilder.WriteValidationError(w, r, "invalid votable id", nil)
		return
	}

	agg, err := c.services.GetVoteService().GetAggregate(r.Context(), votableID, votableType)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, agg)
}
