package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pavelanni/quizforge/internal/model"
)

// CookieName is the cookie the login handler sets alongside the response body.
const CookieName = "auth_token"

// Require returns middleware that rejects requests lacking a valid token
// and, when role is non-empty, requests from callers of a different role.
// The verified identity is stored in the request context for handlers.
func (m *Manager) Require(role model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				unauthorized(w)
				return
			}

			id, err := m.Verify(tokenString)
			if err != nil {
				slog.Debug("Token rejected", "error", err)
				unauthorized(w)
				return
			}

			if role != "" && id.Role != role {
				writeStatus(w, http.StatusForbidden, `{"error":"forbidden"}`)
				return
			}

			next.ServeHTTP(w, r.WithContext(model.ContextWithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken extracts the session token from the Authorization header,
// falling back to the session cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Missing, malformed, and expired tokens all get the same response so the
// reply does not leak which check failed.
func unauthorized(w http.ResponseWriter) {
	writeStatus(w, http.StatusUnauthorized, `{"error":"authentication required"}`)
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
