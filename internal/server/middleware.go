package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"habitgrid/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header; empty string when absent or malformed.
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

// AuthMiddleware verifies the bearer token and stores the user id in the
// request context. Expired and invalid tokens both map to 401 so the client
// can run its refresh flow.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		}
		userID, err := s.auth.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrTokenInvalid) {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			writeError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUserID returns the authenticated user id placed by AuthMiddleware.
func currentUserID(r *http.Request) uint {
	id, _ := r.Context().Value(userIDKey).(uint)
	return id
}
