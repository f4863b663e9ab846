package common

import (
	"time"

	"meetings/boardroom/internal/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CacheService is the in-process cache used for principals and ownership
// facts.
type CacheService struct {
	cache   *cache.Cache
	group   singleflight.Group
	name    string
	metrics *metrics.MetricsRegistry
}

var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultExpiration, cleanUpInterval)}
}

// Instrument records hits and misses of GetOrSet under name.
func (cs *CacheService) Instrument(name string, m *metrics.MetricsRegistry) *CacheService {
	cs.name = name
	cs.metrics = m
	return cs
}

func (cs *CacheService) record(hit bool) {
	if cs.metrics == nil {
		return
	}
	if hit {
		cs.metrics.CacheHitsTotal.WithLabelValues(cs.name).Inc()
	} else {
		cs.metrics.CacheMissesTotal.WithLabelValues(cs.name).Inc()
	}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	return cs.cache.Get(key)
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) GetOrSet(
	key string,
	duration time.Duration,
	loader func() (any, error)) (interface{}, error) {
	if val, found := cs.Get(key); found {
		cs.record(true)
		return val, nil
	}
	cs.record(false)

	val, err, _ := cs.group.Do(key, func() (interface{}, error) {
		if val, found := cs.Get(key); found {
			return val, nil
		}
		val, err := loader()
		if err != nil {
			return nil, err
		}
		cs.Set(key, val, duration)
		return val, nil
	})
	return val, err
}

// ItemCount is exposed for tests and the debug endpoint.
func (cs *CacheService) ItemCount() int {
	return cs.cache.ItemCount()
}
