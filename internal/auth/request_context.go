package auth

import (
	"context"

	"meetings/boardroom/internal/permissions"
)

type contextKey string

var principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p permissions.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored by the auth middleware. The
// zero principal and false are returned outside an authenticated request.
func PrincipalFrom(ctx context.Context) (permissions.Principal, bool) {
	p, ok := ctx.Value(principalKey).(permissions.Principal)
	return p, ok
}
