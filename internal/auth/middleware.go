package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/quillpad/identity/internal/api"
)

// Define a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key used to store the resolved principal in the
	// request context
	UserContextKey contextKey = "user"

	// SessionCookieName is the cookie that carries the session token
	SessionCookieName = "token"
)

type AuthMiddleware struct {
	service *Service
	log     *zap.Logger
}

func NewAuthMiddleware(service *Service, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		log:     log,
	}
}

// Handler verifies the session token and attaches the resolved principal to
// the request context. It never mutates persisted state.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			api.WriteError(w, http.StatusUnauthorized, "Unauthorized", "Not authorized, no token")
			return
		}

		claims, err := m.service.ValidateSessionToken(token)
		if err != nil {
			// Expiry vs tampering is logged here only; the client always
			// sees the same message.
			m.log.Warn("session token rejected",
				zap.String("path", r.URL.Path),
				zap.Bool("expired", errors.Is(err, ErrSessionExpired)),
				zap.Error(err))
			api.WriteError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token")
			return
		}

		user, err := m.service.CurrentUser(claims.UserID)
		if err != nil {
			m.log.Warn("session principal no longer exists",
				zap.Uint("user_id", claims.UserID))
			api.WriteError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken returns the session token, preferring the cookie over the
// Authorization header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// UserFromContext returns the principal attached by the middleware.
func UserFromContext(ctx context.Context) (*User, error) {
	user, ok := ctx.Value(UserContextKey).(*User)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}
