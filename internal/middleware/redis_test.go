package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/auth"
	"github.com/iliyamo/event-ticketing/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func rateCfg(burst int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled: true,
		Burst:   burst,
		Refill:  time.Hour,
		IdleTTL: time.Hour,
		KeyBy:   config.LimitByUser,
		Prefix:  "rl",
	}
}

func TestPurchaseLimiter_BlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.POST("/purchase_ticket", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		JWTAuth(testSecret), PurchaseLimiter(rateCfg(2), rdb))

	alice := bearer(t, 1, auth.RoleCustomer)
	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/purchase_ticket", alice)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := serve(e, http.MethodPost, "/purchase_ticket", alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	// another user has a separate bucket
	rec = serve(e, http.MethodPost, "/purchase_ticket", bearer(t, 2, auth.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPurchaseLimiter_FailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.POST("/purchase_ticket", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		PurchaseLimiter(rateCfg(1), rdb))
	mr.Close()

	for i := 0; i < 3; i++ {
		rec := serve(e, http.MethodPost, "/purchase_ticket", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestPurchaseLimiter_DisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.POST("/p", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, PurchaseLimiter(rateCfg(1), nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/p", "").Code)
	}
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled: true,
		TTL:     time.Minute,
		Prefix:  "events",
	}
}

func TestEventCache_HitMissAndPurge(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheCfg()
	calls := 0
	e := echo.New()
	e.GET("/events", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, EventCache(cfg, rdb))
	e.POST("/create_event", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, PurgeEventCache(cfg, rdb))

	rec := serve(e, http.MethodGet, "/events", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	first := rec.Body.String()

	rec = serve(e, http.MethodGet, "/events", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, first, rec.Body.String())
	assert.Equal(t, 1, calls)

	rec = serve(e, http.MethodGet, "/events?page=2", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	require.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/create_event", "").Code)

	rec = serve(e, http.MethodGet, "/events", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestEventCache_SkipsErrorsAndLargeBodies(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheCfg()
	cfg.MaxBodyBytes = 8
	e := echo.New()
	e.GET("/events/:id", func(c echo.Context) error {
		if c.Param("id") == "404" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "EVENT_NOT_FOUND"})
		}
		return c.String(http.StatusOK, "a body longer than eight bytes")
	}, EventCache(cfg, rdb))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/events/404", "")
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		rec = serve(e, http.MethodGet, "/events/1", "")
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		assert.Equal(t, "a body longer than eight bytes", rec.Body.String())
	}
}

func TestCacheKey_Query(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/events?x=1", nil), httptest.NewRecorder())

	cfg := cacheCfg()
	withQuery := cacheKey(cfg, c)
	cfg.IgnoreQuery = true
	pathOnly := cacheKey(cfg, c)
	assert.NotEqual(t, withQuery, pathOnly)
	assert.Regexp(t, `^events:[0-9a-f]{32}$`, pathOnly)
}

func TestPurchaseLimiter_KeyFallsBackToIP(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/purchase_ticket", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())

	cfg := rateCfg(1)
	assert.Equal(t, "rl:ip:10.0.0.7", limiterKey(cfg, c))

	c.Set(UserIDKey, "42")
	assert.Equal(t, "rl:user:42", limiterKey(cfg, c))
	cfg.KeyBy = config.LimitByUserIP
	assert.Equal(t, "rl:user:42:ip:10.0.0.7", limiterKey(cfg, c))
}
