package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/db/repositories"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"
)

// UserLoader is the slice of the user repository identity resolution needs.
type UserLoader interface {
	GetActiveByID(ctx context.Context, id uint) (*gormModels.User, error)
}

// IdentityResolver turns a bearer token into a principal. Principals are
// cached by user id for ttl, so role changes and blocks take effect within
// that window unless Invalidate is called.
type IdentityResolver struct {
	tokens *TokenIssuer
	users  UserLoader
	cache  common.CacheInterface
	ttl    time.Duration
}

func NewIdentityResolver(tokens *TokenIssuer, users UserLoader, cache common.CacheInterface, ttl time.Duration) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users, cache: cache, ttl: ttl}
}

func principalKeyFor(id uint) string {
	return fmt.Sprintf("principal:%d", id)
}

// Resolve accepts either the raw token or an "Authorization" header value.
func (r *IdentityResolver) Resolve(ctx context.Context, header string) (permissions.Principal, error) {
	token := strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return permissions.Principal{}, ErrUnauthenticated
	}

	claims, err := r.tokens.Parse(token)
	if err != nil {
		return permissions.Principal{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return permissions.Principal{}, err
	}
	return r.Principal(ctx, id)
}

// Principal loads the active user id and derives its roles.
func (r *IdentityResolver) Principal(ctx context.Context, id uint) (permissions.Principal, error) {
	val, err := r.cache.GetOrSet(principalKeyFor(id), r.ttl, func() (any, error) {
		user, err := r.users.GetActiveByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return permissions.Principal{ID: user.ID, IsAdmin: user.IsAdmin, IsStaff: user.IsStaff}, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return permissions.Principal{}, ErrUnauthenticated
		}
		return permissions.Principal{}, err
	}
	return val.(permissions.Principal), nil
}

// Invalidate drops the cached principal after role or status changes.
func (r *IdentityResolver) Invalidate(id uint) {
	r.cache.Delete(principalKeyFor(id))
}
