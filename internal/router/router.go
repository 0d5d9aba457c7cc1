// ===============================
// FILE: internal/router/router.go
// ===============================

// Package router assembles the middleware chain and the versioned API
// routes.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"threadhub/internal/config"
	"threadhub/internal/handlers/api/v1/comments"
	"threadhub/internal/handlers/api/v1/notifications"
	"threadhub/internal/handlers/api/v1/reviews"
	"threadhub/internal/handlers/api/v1/threads"
	"threadhub/internal/handlers/api/v1/votes"
	"threadhub/internal/middleware"
	"threadhub/internal/realtime"
	"threadhub/internal/response"
	"threadhub/internal/services"
)

// Dependencies carries everything the router wires together.
type Dependencies struct {
	Config   *config.Config
	Services *services.ServiceCollection
	Hub      *realtime.Hub
	Logger   *zap.Logger
}

// New builds the HTTP handler: request id, structured logging,
// recovery and rate limiting around the authenticated API surface.
func New(deps *Dependencies) http.Handler {
	builder := response.NewBuilder(response.DefaultConfig(), deps.Logger)
	auth := middleware.NewAuthMiddleware(&deps.Config.Auth, deps.Logger, builder)
	limiter := middleware.NewRateLimiter(deps.Services.Cache, &deps.Config.RateLimit, deps.Logger, builder)

	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger, builder))
	r.Use(auth.Optional())
	r.Use(limiter.Limit())

	r.Get("/health", healthHandler(deps, builder))
	r.Get("/readyz", readinessHandler(deps, builder))

	r.Route("/ws", func(r chi.Router) {
		r.Use(auth.Require())
		r.Get("/", deps.Hub.ServeWS)
	})

	r.Route("/api/v1", func(r chi.Router) {
		mountThreads(r, deps)
		mountComments(r, deps)
		mountVotes(r, deps)
		mountReviews(r, deps)
		mountNotifications(r, deps)
	})

	return r
}

func mountThreads(r chi.Router, deps *Dependencies) {
	ctrl := threads.NewThreadsController(deps.Services, deps.Logger)

	r.Route("/threads", func(r chi.Router) {
		r.Get("/", ctrl.ListThreads)
		r.Post("/", ctrl.CreateThread)
		r.Get("/{threadID}", ctrl.GetThread)
		r.Put("/{threadID}", ctrl.UpdateThread)
		r.Delete("/{threadID}", ctrl.DeleteThread)
		r.Put("/{threadID}/lock", ctrl.LockThread)
	})
}

func mountComments(r chi.Router, deps *Dependencies) {
	ctrl := comments.NewCommentsController(deps.Services, deps.Logger)

	r.Route("/threads/{threadID}/comments", func(r chi.Router) {
		r.Get("/", ctrl.ListComments)
		r.Post("/", ctrl.CreateComment)
		r.Get("/{commentID}/locate", ctrl.LocateComment)
	})

	r.Route("/comments/{commentID}", func(r chi.Router) {
		r.Get("/", ctrl.GetNode)
		r.Put("/", ctrl.UpdateNode)
		r.Delete("/", ctrl.DeleteNode)
		r.Post("/replies", ctrl.CreateReply)
		r.Post("/nested-replies", ctrl.CreateNestedReply)
	})
}

func mountVotes(r chi.Router, deps *Dependencies) {
	ctrl := votes.NewVotesController(deps.Services, deps.Logger)

	r.Route("/votes", func(r chi.Router) {
		r.Post("/", ctrl.CastVote)
		r.Get("/{votableType}/{votableID}", ctrl.GetAggregate)
	})
}

func mountReviews(r chi.Router, deps *Dependencies) {
	ctrl := reviews.NewReviewsController(deps.Services, deps.Logger)

	r.Route("/threads/{threadID}/reviews", func(r chi.Router) {
		r.Get("/", ctrl.ListReviews)
		r.Post("/", ctrl.CreateReview)
		r.Get("/summary", ctrl.GetRatingSummary)
		r.Get("/{reviewID}/locate", ctrl.LocateReview)
	})

	r.Route("/users/{userID}/reviews", func(r chi.Router) {
		r.Get("/", ctrl.ListAuthorReviews)
		r.Get("/{reviewID}/locate", ctrl.LocateAuthorReview)
	})

	r.Route("/reviews/{reviewID}", func(r chi.Router) {
		r.Get("/", ctrl.GetReview)
		r.Put("/", ctrl.UpdateReview)
		r.Delete("/", ctrl.DeleteReview)
	})
}

func mountNotifications(r chi.Router, deps *Dependencies) {
	ctrl := notifications.NewNotificationsController(deps.Services, deps.Logger)

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", ctrl.List)
		r.Get("/unread-count", ctrl.CountUnread)
		r.Put("/read-all", ctrl.MarkAllRead)
		r.Put("/{notificationID}/read", ctrl.MarkRead)
	})
}

func healthHandler(deps *Dependencies, builder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builder.WriteSuccess(w, r, map[string]interface{}{
			"status": "ok",
			"uptime": deps.Services.Uptime().Round(time.Second).String(),
		})
	}
}

func readinessHandler(deps *Dependencies, builder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Services.DBManager.Health(r.Context()); err != nil {
			deps.Logger.Warn("readiness check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"success":false,"error":{"type":"SERVICE_UNAVAILABLE","message":"database unavailable"}}`))
			return
		}
		builder.WriteSuccess(w, r, map[string]string{"status": "ready"})
	}
}
