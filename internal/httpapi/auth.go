package httpapi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// jwtAuth enforces a bearer token signed with config.JWTSecret on every
// request except the two unauthenticated probes (spec.md §6.1: /info,
// /health). The websocket upgrade on /events is not exempt: it needs the
// same Authorization header.
func (s *Server) jwtAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/info" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusForbidden, ErrCodeForbidden, "missing bearer token")
			return
		}

		_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			return []byte(s.config.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			writeError(w, http.StatusForbidden, ErrCodeForbidden, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
