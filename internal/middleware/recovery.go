// ===============================
// FILE: internal/middleware/recovery.go
// ===============================

package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"threadhub/internal/contextutils"
	"threadhub/internal/response"
)

// Recovery converts panics into 500 responses and logs the stack.
func Recovery(logger *zap.Logger, builder *response.Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", contextutils.GetRequestID(r.Context())),
						zap.ByteString("stack", debug.Stack()),
					)
					builder.WriteInternalError(w, r, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
