// Package middleware provides HTTP middleware for the cross-reference API.
package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

// Context keys for request-scoped values.
type contextKey string

const (
	// OperatorKey is the context key for the caller's name used in audit events.
	OperatorKey contextKey = "operator"
)

// Request headers.
const (
	APIKeyHeader   = "X-API-Key"
	OperatorHeader = "X-Operator"
)

// AnonymousOperator is used when a request does not name its caller.
const AnonymousOperator = api.AnonymousOperator

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled bool
	APIKeys []string
	// AllowPublicPaths bypass the key check.
	AllowPublicPaths []string
}

// Auth returns an API key authentication middleware. Keys are accepted as a
// Bearer token or in the X-API-Key header.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := r.Header.Get(OperatorHeader)
			if operator == "" {
				operator = AnonymousOperator
			}
			ctx := context.WithValue(r.Context(), OperatorKey, operator)

			if !cfg.Enabled || isPublicPath(r.URL.Path, cfg.AllowPublicPaths) {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			key, err := extractKey(r)
			if err != "" {
				writeAuthError(w, http.StatusUnauthorized, err)
				return
			}
			if !validKey(key, cfg.APIKeys) {
				writeAuthError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractKey(r *http.Request) (string, string) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, ""
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "missing authorization header"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", "invalid authorization header format"
	}
	return parts[1], ""
}

func validKey(key string, keys []string) bool {
	ok := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
			ok = true
		}
	}
	return ok
}

func isPublicPath(path string, public []string) bool {
	for _, p := range public {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(client.ErrorResponse{Error: "unauthorized", Message: message})
}

// OperatorFromContext extracts the operator name from context.
func OperatorFromContext(ctx context.Context) string {
	if v := ctx.Value(OperatorKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return AnonymousOperator
}

// CORS returns CORS middleware for browser clients.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Operator, X-Request-Id, Connect-Protocol-Version")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
