package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/auth"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// Deps bundles what the routes need.  Redis may be nil, in which case the
// rate limiter and the response cache pass requests straight through.
type Deps struct {
	Tickets   *handler.TicketHandler
	Events    *handler.EventHandler
	JWTSecret string
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Ready     echo.HandlerFunc
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.Ready != nil {
		e.GET("/readyz", d.Ready)
	}

	cache := middleware.EventCache(d.Cache, d.Redis)
	e.GET("/events", d.Events.List, cache)
	e.GET("/events/:id", d.Events.Get, cache)
}

// RegisterCustomer registers the ticket routes.  The purchase route is
// rate limited per user; the capability check happens in the service.
func RegisterCustomer(e *echo.Echo, d Deps) {
	jwt := middleware.JWTAuth(d.JWTSecret)
	e.POST("/purchase_ticket", d.Tickets.PurchaseTicket, jwt, middleware.PurchaseLimiter(d.RateLimit, d.Redis))

	v1 := e.Group("/v1", jwt)
	v1.GET("/my-tickets", d.Tickets.ListMyTickets)
}

// RegisterOrganizer registers event management.  Successful writes purge
// the cached event listing.
func RegisterOrganizer(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireCapability(auth.CapManageEvents),
		middleware.PurgeEventCache(d.Cache, d.Redis),
	}
	e.POST("/create_event", d.Events.Create, mw...)
	e.PUT("/update_event/:id", d.Events.Update, mw...)
	e.DELETE("/delete_event/:id", d.Events.Delete, mw...)
}

// Register wires every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	RegisterCustomer(e, d)
	RegisterOrganizer(e, d)
}
