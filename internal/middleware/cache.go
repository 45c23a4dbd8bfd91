package middleware

import (
    "bytes"
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/config"
)

// cachedResponse is what a cache entry holds.  Only the content type is
// kept from the original headers.
type cachedResponse struct {
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// bodyRecorder tees the response body into buf until it exceeds limit.
type bodyRecorder struct {
    http.ResponseWriter
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
    if !r.overflow {
        if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
            r.overflow = true
            r.buf.Reset()
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    target := c.Request().URL.Path
    if !cfg.IgnoreQuery && c.Request().URL.RawQuery != "" {
        target += "?" + c.Request().URL.RawQuery
    }
    sum := sha256.Sum256([]byte(target))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:16])
}

// EventCache answers GET requests for public event reads from Redis and
// stores successful responses for cfg.TTL.  It sets X-Cache to HIT or MISS.
func EventCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(http.StatusOK, hit.ContentType, hit.Body)
                }
            } else if err != redis.Nil {
                c.Logger().Warnf("event cache: get %s: %v", key, err)
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if c.Response().Status != http.StatusOK || rec.overflow {
                return nil
            }

            entry, err := json.Marshal(cachedResponse{
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        rec.buf.Bytes(),
            })
            if err != nil {
                return nil
            }
            if err := rdb.Set(context.WithoutCancel(ctx), key, entry, cfg.TTL).Err(); err != nil {
                c.Logger().Warnf("event cache: set %s: %v", key, err)
            }
            return nil
        }
    }
}

// PurgeEventCache drops every cached event read once the wrapped organizer
// write has succeeded.
func PurgeEventCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := next(c); err != nil || c.Response().Status >= http.StatusMultipleChoices {
                return err
            }
            ctx := context.WithoutCancel(c.Request().Context())
            if err := purgePrefix(ctx, rdb, cfg.Prefix); err != nil {
                c.Logger().Warnf("event cache: purge: %v", err)
            }
            return nil
        }
    }
}

func purgePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
    iter := rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rdb.Del(ctx, keys...).Err()
}
