package auth

import (
	"context"

	"github.com/mwhitby/alcove/internal/model"
)

type contextKey struct{}

// AuthContext carries the resolved identity for a request. Every routed
// request has a Session; UserID is zero until the visitor logs in.
type AuthContext struct {
	Session *model.Session
	UserID  int64
	IsAdmin bool
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.IsAdmin
}

// SessionFromContext returns the session loaded by the middleware, or nil
// on paths the session loader does not cover (health, webhooks).
func SessionFromContext(ctx context.Context) *model.Session {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return ac.Session
}
