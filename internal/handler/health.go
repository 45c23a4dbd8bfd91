package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is implemented by *sql.DB and by the Redis client wrapper used in
// cmd/server.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health is the liveness check used by load balancers.  It returns a plain
// "ok" with 200 and touches no dependency.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports 503 when any named dependency fails to answer a ping
// within two seconds.
func Ready(deps map[string]Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        status := http.StatusOK
        out := make(map[string]string, len(deps))
        for name, d := range deps {
            if err := d.PingContext(ctx); err != nil {
                out[name] = err.Error()
                status = http.StatusServiceUnavailable
                continue
            }
            out[name] = "ok"
        }
        return c.JSON(status, out)
    }
}
