package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/forecast"
)

// forecastCache memoizes recent forecast results per entity and horizon.
// A TTL of zero disables caching entirely.
type forecastCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result  *forecast.Result
	expires time.Time
}

func newForecastCache(ttl time.Duration) *forecastCache {
	return &forecastCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(entity string, periods int) string {
	return fmt.Sprintf("%s:%d", entity, periods)
}

func (c *forecastCache) get(entity string, periods int) *forecast.Result {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey(entity, periods)]
	if !ok || time.Now().After(entry.expires) {
		return nil
	}
	return entry.result
}

func (c *forecastCache) put(entity string, periods int, result *forecast.Result) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(entity, periods)] = cacheEntry{
		result:  result,
		expires: time.Now().Add(c.ttl),
	}
}

// invalidate drops every cached horizon for the entity, called after a
// retrain so stale forecasts never outlive their model.
func (c *forecastCache) invalidate(entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := entity + ":"
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}
