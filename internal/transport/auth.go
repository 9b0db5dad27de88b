package transport

import (
	"net/http"
	"strings"
)

// RequireBearer rejects requests that carry no bearer token. The token
// itself is resolved to an actor by the MCP server.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="probill"`)
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
