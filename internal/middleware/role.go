package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/auth"
)

// RequireCapability rejects callers whose principal lacks capability c
// with 403 before the handler runs.  It must be registered after JWTAuth.
func RequireCapability(c auth.Capability) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(ctx echo.Context) error {
            p, ok := PrincipalFrom(ctx)
            if !ok || !p.Can(c) {
                return ctx.JSON(http.StatusForbidden, echo.Map{"error": "FORBIDDEN", "message": "missing capability " + string(c)})
            }
            return next(ctx)
        }
    }
}
