package config

import (
	"time"
)

// OccupancyCacheConfig defines settings for the Redis-backed occupancy
// cache.  When Enabled is false or no Redis client is configured, the
// engine falls back to its in-process cache.  TTL bounds how long a
// snapshot may outlive a missed invalidation; Prefix namespaces the
// keys.  SessionTTL controls how long chat sessions are remembered.
type OccupancyCacheConfig struct {
	Enabled    bool
	TTL        time.Duration
	Prefix     string
	SessionTTL time.Duration
}

// LoadOccupancyCacheConfig reads environment variables to build an
// OccupancyCacheConfig.  Defaults are used when variables are not set.
func LoadOccupancyCacheConfig() OccupancyCacheConfig {
	return OccupancyCacheConfig{
		Enabled:    envBool("CACHE_ENABLED", true),
		TTL:        envDur("CACHE_TTL", 5*time.Minute),
		Prefix:     getenv("CACHE_PREFIX", "occupancy"),
		SessionTTL: envDur("SESSION_TTL", 24*time.Hour),
	}
}
