package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/auth"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository/memory"
	"github.com/iliyamo/event-ticketing/internal/service"
)

const secret = "router-secret"

func newApp(t *testing.T) *echo.Echo {
	t.Helper()
	logger := log.New("test")
	logger.SetOutput(io.Discard)

	store := memory.New()
	require.NoError(t, store.Create(context.Background(), &model.Event{
		OrganizerID: 9, Title: "Gig", Date: time.Date(2026, 7, 1, 21, 0, 0, 0, time.UTC),
		NormalPriceCents: 2000, VIPPriceCents: 3000, RemainingCapacity: 10,
	}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	Register(e, Deps{
		Tickets:   handler.NewTicketHandler(service.NewPurchaseService(store, store, store.Tickets(), service.WithLogger(logger))),
		Events:    handler.NewEventHandler(service.NewEventService(store, time.Second, logger)),
		JWTSecret: secret,
		Redis:     rdb,
		RateLimit: config.RateLimitConfig{Enabled: true, Burst: 2, Refill: time.Hour, IdleTTL: time.Hour, KeyBy: config.LimitByUser, Prefix: "rl"},
		Cache:     config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "events"},
	})
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, body string, p *auth.Principal) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if p != nil {
		tok, err := auth.NewAccessToken(secret, p.UserID, p.Role, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	e := newApp(t)
	customer := &auth.Principal{UserID: 42, Role: auth.RoleCustomer}
	organizer := &auth.Principal{UserID: 9, Role: auth.RoleOrganizer}

	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, e, http.MethodGet, "/nope", "", nil).Code)

	rec := call(t, e, http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", call(t, e, http.MethodGet, "/events", "", nil).Header().Get("X-Cache"))

	assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodPost, "/purchase_ticket", `{"event_id":1,"category":"VIP"}`, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/create_event", `{}`, customer).Code)
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/v1/my-tickets", "", customer).Code)

	body := `{"title":"Late Show","date":"2026-07-02T23:00:00Z","normal_price_cents":1000,"vip_price_cents":1500,"capacity":5}`
	assert.Equal(t, http.StatusCreated, call(t, e, http.MethodPost, "/create_event", body, organizer).Code)
	rec = call(t, e, http.MethodGet, "/events", "", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), "organizer write purges the listing cache")
}

func TestPurchaseRateLimited(t *testing.T) {
	e := newApp(t)
	customer := &auth.Principal{UserID: 42, Role: auth.RoleCustomer}

	for i := 0; i < 2; i++ {
		rec := call(t, e, http.MethodPost, "/purchase_ticket", `{"event_id":1,"category":"Normal"}`, customer)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := call(t, e, http.MethodPost, "/purchase_ticket", `{"event_id":1,"category":"Normal"}`, customer)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
