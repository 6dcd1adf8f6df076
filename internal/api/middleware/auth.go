package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/noscite/noscite-assistant/internal/api"
	"github.com/noscite/noscite-assistant/internal/audit"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/security"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// userIDHeader exposes the authenticated user to outer middleware.
const userIDHeader = "X-User-ID"

type TokenValidator interface {
	ValidateToken(token string) (*security.Claims, error)
}

type RoleChecker interface {
	HasRole(ctx context.Context, userID string, role domain.Role) (bool, error)
}

// RequireAdmin authenticates the bearer token and requires the admin role.
// Missing or invalid tokens get 401; authenticated non-admins get 403.
func RequireAdmin(tokens TokenValidator, roles RoleChecker, events *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(userIDHeader)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				events.Log(r.Context(), audit.EventUnauthorized, map[string]any{"reason": "missing_token"}, r)
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				events.Log(r.Context(), audit.EventUnauthorized, map[string]any{"reason": "malformed_header"}, r)
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				events.Log(r.Context(), audit.EventUnauthorized, map[string]any{"reason": "invalid_token"}, r)
				api.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			userID := claims.UserID()
			isAdmin, err := roles.HasRole(r.Context(), userID, domain.RoleAdmin)
			if err != nil {
				events.Log(r.Context(), audit.EventUpstreamFailure, map[string]any{"stage": "role_lookup", "user_id": userID}, r)
				telemetry.CaptureError(r.Context(), fmt.Errorf("role lookup for %s: %w", userID, err))
				api.HandleError(w, err)
				return
			}
			if !isAdmin {
				events.Log(r.Context(), audit.EventForbidden, map[string]any{"user_id": userID, "path": r.URL.Path}, r)
				api.Error(w, http.StatusForbidden, "accesso riservato agli amministratori")
				return
			}

			r.Header.Set(userIDHeader, userID)
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

func userIDFromRequest(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return userID
	}
	return r.Header.Get(userIDHeader)
}
