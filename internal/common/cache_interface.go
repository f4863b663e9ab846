package common

import "time"

// CacheInterface is the small cache surface the resolvers depend on.
type CacheInterface interface {
	Set(key string, value interface{}, duration time.Duration)

	// Get returns the value and true if found.
	Get(key string) (interface{}, bool)

	Delete(key string)

	// GetOrSet loads and stores the value on a miss. Concurrent misses on
	// the same key share one loader call.
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)
}
