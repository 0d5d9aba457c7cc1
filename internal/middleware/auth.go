// ===============================
// FILE: internal/middleware/auth.go
// ===============================

package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"threadhub/internal/config"
	"threadhub/internal/contextutils"
	"threadhub/internal/response"
)

// AuthContext carries the verified identity of a request.
type AuthContext struct {
	UserID   int64
	Username string
}

// AuthMiddleware verifies bearer tokens.
type AuthMiddleware struct {
	config  *config.AuthConfig
	logger  *zap.Logger
	builder *response.Builder
}

// NewAuthMiddleware creates the auth middleware.
func NewAuthMiddleware(cfg *config.AuthConfig, logger *zap.Logger, builder *response.Builder) *AuthMiddleware {
	return &AuthMiddleware{config: cfg, logger: logger, builder: builder}
}

// Optional verifies a token when one is presented and stores the
// identity in the context. Requests without a token pass through
// anonymously.
func (m *AuthMiddleware) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := m.verify(token)
			if err != nil {
				m.logger.Debug("invalid token on optional route", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := contextutils.WithUserID(r.Context(), authCtx.UserID)
			ctx = contextutils.WithUsername(ctx, authCtx.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects requests without a valid token.
func (m *AuthMiddleware) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				m.builder.WriteUnauthorized(w, r, "authentication required")
				return
			}

			authCtx, err := m.verify(token)
			if err != nil {
				m.logger.Warn("token verification failed",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				m.builder.WriteUnauthorized(w, r, "invalid or expired token")
				return
			}

			ctx := contextutils.WithUserID(r.Context(), authCtx.UserID)
			ctx = contextutils.WithUsername(ctx, authCtx.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *AuthMiddleware) verify(tokenString string) (*AuthContext, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.config.JWTSecret), nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("missing subject claim")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("invalid subject claim: %q", sub)
	}

	username, _ := claims["username"].(string)
	if username == "" {
		return nil, fmt.Errorf("missing username claim")
	}

	return &AuthContext{UserID: userID, Username: username}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
