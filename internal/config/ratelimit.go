package config

import (
    "strings"
    "time"
)

// Buckets for POST /purchase_ticket can be keyed per buyer, per client IP
// or per buyer and IP together.  Anonymous callers always fall back to IP.
const (
    LimitByUser   = "user"
    LimitByIP     = "ip"
    LimitByUserIP = "user_ip"
)

// RateLimitConfig bounds how often one buyer may attempt a purchase.  A
// bucket starts with Burst tokens and regains one token every Refill.
type RateLimitConfig struct {
    Enabled bool
    Burst   int
    Refill  time.Duration
    IdleTTL time.Duration // untouched buckets expire after this
    KeyBy   string
    Prefix  string
}

// LoadRateLimitConfig reads the PURCHASE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("PURCHASE_LIMIT_ENABLED", true),
        Burst:   envInt("PURCHASE_LIMIT_BURST", 10),
        Refill:  envDur("PURCHASE_LIMIT_REFILL", time.Second),
        IdleTTL: envDur("PURCHASE_LIMIT_IDLE_TTL", 10*time.Minute),
        KeyBy:   strings.ToLower(getenv("PURCHASE_LIMIT_KEY", LimitByUser)),
        Prefix:  getenv("PURCHASE_LIMIT_PREFIX", "purchase-rl"),
    }
    if cfg.Burst < 1 {
        cfg.Burst = 1
    }
    if cfg.Refill <= 0 {
        cfg.Refill = time.Second
    }
    // a bucket must outlive a full refill or it resets to Burst early
    if full := time.Duration(cfg.Burst) * cfg.Refill; cfg.IdleTTL < full {
        cfg.IdleTTL = full
    }
    switch cfg.KeyBy {
    case LimitByUser, LimitByIP, LimitByUserIP:
    default:
        cfg.KeyBy = LimitByUser
    }
    return cfg
}
