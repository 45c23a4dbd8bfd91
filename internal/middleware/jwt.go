package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/auth"
)

// Context keys set by JWTAuth.
const (
    PrincipalKey = "principal"
    UserIDKey    = "user_id"
    RoleKey      = "role"
)

// JWTAuth returns an Echo middleware that verifies a Bearer access token
// issued by the auth provider and stores the caller in the request
// context.  Handlers read it with PrincipalFrom; "user_id" and "role" are
// also set as strings for logging and rate-limit keys.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            h := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(h, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

            p, err := auth.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(PrincipalKey, p)
            c.Set(UserIDKey, strconv.FormatUint(p.UserID, 10))
            c.Set(RoleKey, string(p.Role))
            return next(c)
        }
    }
}
