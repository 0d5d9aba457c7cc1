// ===============================
// FILE: internal/middleware/rate_limiter.go
// ===============================

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"threadhub/internal/cache"
	"threadhub/internal/config"
	"threadhub/internal/contextutils"
	"threadhub/internal/response"
)

// RateLimiter limits requests per client using fixed one-minute
// windows counted in the cache, so limits hold across instances when
// the cache is redis.
type RateLimiter struct {
	cache   cache.Cache
	config  *config.RateLimitConfig
	logger  *zap.Logger
	builder *response.Builder
}

// NewRateLimiter creates a cache-backed rate limiter.
func NewRateLimiter(c cache.Cache, cfg *config.RateLimitConfig, logger *zap.Logger, builder *response.Builder) *RateLimiter {
	return &RateLimiter{cache: c, config: cfg, logger: logger, builder: builder}
}

// Limit enforces the per-minute request budget.
func (rl *RateLimiter) Limit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := rl.clientKey(r)
			count, err := rl.cache.Increment(r.Context(), key, 1, time.Minute)
			if err != nil {
				// A broken cache must not take the API down.
				rl.logger.Warn("rate limit counter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			limit := int64(rl.config.RequestsPerMinute + rl.config.Burst)
			remaining := limit - count
			if remaining < 0 {
				remaining = 0
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > limit {
				rl.logger.Warn("rate limit exceeded",
					zap.String("client", key),
					zap.Int64("count", count),
					zap.Int64("limit", limit),
				)
				w.Header().Set("Retry-After", "60")
				rl.builder.WriteRateLimited(w, r, "rate limit exceeded, retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey buckets authenticated clients by user id and anonymous
// clients by IP.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	if userID, ok := contextutils.GetUserID(r.Context()); ok {
		return fmt.Sprintf("ratelimit:user:%d", userID)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		host = forwarded
	}
	return "ratelimit:ip:" + host
}
