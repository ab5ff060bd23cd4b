package middleware

import (
	"net/http"
	"strings"

	"github.com/ayush/habit-tracker/backend/internal/auth"
	"github.com/ayush/habit-tracker/backend/internal/logger"
	"github.com/ayush/habit-tracker/backend/internal/response"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireAuth is middleware that validates the bearer token and injects
// the caller's identity into the request context. denylist may be nil.
func RequireAuth(tokens TokenVerifier, denylist auth.Denylist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Fail(w, http.StatusUnauthorized, response.CodeMissingToken, "Access token is required")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				response.Fail(w, http.StatusForbidden, response.CodeInvalidToken, "Invalid or expired token")
				return
			}

			if denylist != nil && claims.ID != "" {
				revoked, err := denylist.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error("auth: denylist lookup", "error", err)
					response.Fail(w, http.StatusInternalServerError, response.CodeAuthError, "Failed to verify token")
					return
				}
				if revoked {
					response.Fail(w, http.StatusForbidden, response.CodeInvalidToken, "Invalid or expired token")
					return
				}
			}

			ctx := auth.WithIdentity(r.Context(), claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerToken(r); raw != "" {
				if claims, err := tokens.Verify(raw); err == nil {
					r = r.WithContext(auth.WithIdentity(r.Context(), claims.Identity()))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
