package middleware

// identity.go defines helpers shared across middleware and handlers for
// reading the authenticated caller out of the Echo context.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/auth"
)

// PrincipalFrom returns the caller stored by JWTAuth.  ok is false on
// routes that are not behind JWTAuth.
func PrincipalFrom(c echo.Context) (auth.Principal, bool) {
    p, ok := c.Get(PrincipalKey).(auth.Principal)
    return p, ok && p.Authenticated()
}

// userID returns the caller's ID as a string, or "anon" when no user is
// authenticated.
func userID(c echo.Context) string {
    if s, ok := c.Get(UserIDKey).(string); ok && s != "" {
        return s
    }
    return "anon"
}
