package auth

import (
	"context"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

type authContextKey struct{}

// ContextWithAuth stores the authenticated caller on ctx.
func ContextWithAuth(ctx context.Context, authCtx *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, authCtx)
}

// AuthFromContext returns the caller stored by ContextWithAuth, or nil.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	authCtx, _ := ctx.Value(authContextKey{}).(*model.AuthContext)
	return authCtx
}

// UserIDFromContext returns the caller's user id, or "" when unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if authCtx := AuthFromContext(ctx); authCtx != nil {
		return authCtx.UserID
	}
	return ""
}
