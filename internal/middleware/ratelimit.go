package middleware

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/config"
)

// takeToken refills the bucket at KEYS[1] for the time elapsed since its
// last refill and spends one token.  Running it as a script keeps every
// server instance on the same counter.
//
// ARGV: now_ms, burst, refill_ms, idle_ms
// Returns {allowed (0|1), tokens_left, wait_ms}.
var takeToken = redis.NewScript(`
local burst = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local now = tonumber(ARGV[1])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
if tokens == nil or stamp == nil then
  tokens, stamp = burst, now
end

local gained = math.floor(math.max(0, now - stamp) / refill)
if gained > 0 then
  tokens = math.min(burst, tokens + gained)
  stamp = stamp + gained * refill
end

local allowed, wait = 0, 0
if tokens >= 1 then
  allowed, tokens = 1, tokens - 1
else
  wait = math.max(0, refill - (now - stamp))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {allowed, tokens, wait}
`)

type bucketState struct {
    allowed bool
    left    int64
    wait    time.Duration
}

func spend(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketState, error) {
    vals, err := takeToken.Run(ctx, rdb, []string{key},
        time.Now().UnixMilli(), cfg.Burst, cfg.Refill.Milliseconds(), cfg.IdleTTL.Milliseconds(),
    ).Int64Slice()
    if err != nil {
        return bucketState{}, err
    }
    if len(vals) != 3 {
        return bucketState{}, fmt.Errorf("unexpected bucket reply %v", vals)
    }
    return bucketState{
        allowed: vals[0] == 1,
        left:    vals[1],
        wait:    time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// PurchaseLimiter throttles purchase attempts per buyer.  It must run after
// JWTAuth to see the buyer.  Without Redis, or when Redis fails, requests
// pass through unthrottled.
func PurchaseLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := limiterKey(cfg, c)
            st, err := spend(c.Request().Context(), rdb, cfg, key)
            if err != nil {
                c.Logger().Warnf("purchase limiter: %s: %v", key, err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(st.left, 10))
            if st.allowed {
                return next(c)
            }

            secs := int((st.wait + time.Second - 1) / time.Second)
            if secs < 1 {
                secs = 1
            }
            h.Set("Retry-After", strconv.Itoa(secs))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "RATE_LIMITED",
                "message":     "too many purchase attempts",
                "retry_after": secs,
            })
        }
    }
}

func limiterKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    uid := userID(c)
    if uid == "anon" {
        return cfg.Prefix + ":ip:" + ip
    }
    switch cfg.KeyBy {
    case config.LimitByIP:
        return cfg.Prefix + ":ip:" + ip
    case config.LimitByUserIP:
        return cfg.Prefix + ":user:" + uid + ":ip:" + ip
    default:
        return cfg.Prefix + ":user:" + uid
    }
}
