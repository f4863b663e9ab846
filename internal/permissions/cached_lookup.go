package permissions

import (
	"context"
	"fmt"
	"time"

	"meetings/boardroom/internal/common"
)

// CachedLookup memoizes Subject facts for ttl. Ownership columns never
// change after insert, so the only staleness is a deleted row resolving for
// up to ttl. Delegations are not cached since attendee flags toggle.
type CachedLookup struct {
	next  OwnershipLookup
	cache common.CacheInterface
	ttl   time.Duration
}

func NewCachedLookup(next OwnershipLookup, cache common.CacheInterface, ttl time.Duration) *CachedLookup {
	return &CachedLookup{next: next, cache: cache, ttl: ttl}
}

func (c *CachedLookup) Subject(ctx context.Context, kind Kind, id uint) (Subject, error) {
	key := fmt.Sprintf("subject:%s:%d", kind, id)
	v, err := c.cache.GetOrSet(key, c.ttl, func() (any, error) {
		return c.next.Subject(ctx, kind, id)
	})
	if err != nil {
		return Subject{}, err
	}
	return v.(Subject), nil
}

func (c *CachedLookup) Delegations(ctx context.Context, eventID, userID uint) (*Delegations, error) {
	return c.next.Delegations(ctx, eventID, userID)
}
