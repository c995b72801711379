package auth

import (
	"context"

	"github.com/dukerupert/nacp/internal/model"
)

type contextKey struct{}

// AuthContext identifies the signed-in user. UserID is 0 for admins signed
// in from the configured credential map.
type AuthContext struct {
	UserID    int64
	Username  string
	Role      string
	SessionID int64
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

func Role(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Role
}

func IsAdmin(ctx context.Context) bool {
	return Role(ctx) == model.RoleAdmin
}
