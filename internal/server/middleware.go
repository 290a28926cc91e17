package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"sync-bridge/internal/common/logger"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// RequestID tags every request with a generated id, exposed on the response
// and available to handlers for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// AuthGate is a presence gate, not real authorization: Basic credentials and
// the x-apikey header must be supplied and non-blank, but neither is checked
// against any store. The Authorization header is later forwarded verbatim to
// ServiceNow and the x-apikey value to Onspring.
func AuthGate(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			apiKey := r.Header.Get("x-apikey")

			if !ok || isBlank(username) || isBlank(password) || isBlank(apiKey) {
				log.Warn("rejected request with missing credentials", map[string]interface{}{
					"requestId": requestIDFromContext(r.Context()),
					"path":      r.URL.Path,
				})
				w.Header().Set("WWW-Authenticate", `Basic realm="sync-bridge"`)
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "credentials required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
