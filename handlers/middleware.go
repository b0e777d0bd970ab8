package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

type contextKey string

const (
	userIDContextKey contextKey = "userID"
	emailContextKey  contextKey = "email"
)

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Auth verifies the Bearer token and stores the user identity on the context.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		authParts := strings.Split(authHeader, " ")
		if len(authParts) != 2 || authParts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		userID, email, err := m.authService.VerifyJWT(authParts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		ctx = context.WithValue(ctx, emailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID pulls the authenticated user id set by the Auth middleware.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDContextKey).(string)
	return id
}

// RequestLogger logs method, path, and duration for every request.
func RequestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}

// requireMembership loads the caller's membership on a project and, when
// roles are given, checks the role is one of them. Authorization is a plain
// row lookup; a missing row means no access.
func requireMembership(r *http.Request, store *database.Store, projectID string, roles ...string) (database.Membership, error) {
	member, err := store.GetMembership(r.Context(), projectID, userID(r))
	if err != nil {
		if err == database.ErrNotFound {
			return database.Membership{}, ErrForbidden
		}
		return database.Membership{}, err
	}
	if len(roles) == 0 {
		return member, nil
	}
	for _, role := range roles {
		if member.Role == role {
			return member, nil
		}
	}
	return database.Membership{}, ErrForbidden
}
