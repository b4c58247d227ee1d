package middleware

import (
	"net/http"
	"strings"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/model"
)

// RequireScope lets the request through when the caller holds any of the
// required scopes. Admin satisfies every scope. Must run after Auth.
func RequireScope(required ...string) func(http.Handler) http.Handler {
	missing := "Insufficient permissions. Required scope: " + strings.Join(required, " or ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeAccessError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			for _, scope := range required {
				if authCtx.HasScope(scope) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAccessError(w, http.StatusForbidden, "FORBIDDEN", missing)
		})
	}
}

// RequireRead guards catalog lookups and checkout listing.
func RequireRead() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeRead)
}

// RequireWrite guards borrow and return.
func RequireWrite() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeWrite)
}

// RequireAdmin guards catalog maintenance and user administration.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeAdmin)
}
