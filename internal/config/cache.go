package config

import "time"

// CacheConfig controls the Redis cache in front of GET /events and
// GET /events/:id.  Organizer writes purge it; purchases do not, so the
// remaining capacity shown by a cached read may lag by up to TTL.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int  // larger responses are served but not stored
    IgnoreQuery  bool // key on the path alone
}

func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("EVENT_CACHE_ENABLED", true),
        TTL:          envDur("EVENT_CACHE_TTL", 10*time.Second),
        Prefix:       getenv("EVENT_CACHE_PREFIX", "events"),
        MaxBodyBytes: envInt("EVENT_CACHE_MAX_BODY_BYTES", 1<<20),
        IgnoreQuery:  envBool("EVENT_CACHE_IGNORE_QUERY", false),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 10 * time.Second
    }
    return cfg
}
