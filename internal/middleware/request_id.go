// ===============================
// FILE: internal/middleware/request_id.go
// ===============================

package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"threadhub/internal/contextutils"
)

// HeaderXRequestID is the request id header.
const HeaderXRequestID = "X-Request-ID"

// RequestID attaches an id to every request, reusing an incoming
// header when present, and stores it in the context for logging and
// responses.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderXRequestID)
			if requestID == "" {
				requestID = generateRequestID()
			}

			w.Header().Set(HeaderXRequestID, requestID)
			ctx := contextutils.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func generateRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return id.String()
}

// RequestLogger returns a logger enriched with the request id.
func RequestLogger(logger *zap.Logger, r *http.Request) *zap.Logger {
	if requestID := contextutils.GetRequestID(r.Context()); requestID != "" {
		return logger.With(zap.String("request_id", requestID))
	}
	return logger
}
