package rules

import "time"

// RulesCache provides an abstraction for caching a district's active
// rule snapshot, so evaluation does not hit the database per request.
// Implementations: in-memory (single process) and Redis (shared).
type RulesCache interface {
	// Get retrieves cached rules, returns nil on cache miss or expiry
	Get() []*Rule

	// Set stores rules in cache
	Set(rules []*Rule)

	// Invalidate clears the cache, forcing a refresh on next Get
	Invalidate()

	// IsValid returns true if cache has valid data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries.
	// Set to 0 for no expiration (manual invalidation only).
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for rule caching
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0, // invalidate on mutations only
	}
}
