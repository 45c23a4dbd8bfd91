package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/auth"
    "github.com/iliyamo/event-ticketing/internal/middleware"
    "github.com/iliyamo/event-ticketing/internal/service"
)

var errNoPrincipal = errors.New("no authenticated principal in context")

// getPrincipal returns the caller stored by the JWT middleware.
func getPrincipal(c echo.Context) (auth.Principal, error) {
    p, ok := middleware.PrincipalFrom(c)
    if !ok {
        return auth.Principal{}, errNoPrincipal
    }
    return p, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// statusClientClosedRequest is the non-standard code nginx logs when the
// client goes away before the response.
const statusClientClosedRequest = 499

// statusFor maps a service error kind to an HTTP status.  Business rule
// violations on a purchase are the client's problem (400); storage outages
// are retryable (503).
func statusFor(kind service.Kind) int {
    switch kind {
    case service.KindEventNotFound, service.KindInsufficientCapacity,
        service.KindInvalidCategory, service.KindInvalidInput:
        return http.StatusBadRequest
    case service.KindForbidden:
        return http.StatusForbidden
    case service.KindConflict:
        return http.StatusConflict
    case service.KindStorageUnavailable:
        return http.StatusServiceUnavailable
    case service.KindCanceled:
        return statusClientClosedRequest
    }
    return http.StatusInternalServerError
}

// writeError renders err as {"error": KIND, "message": ...}.  Internal
// errors are logged and their details withheld from the client.
func writeError(c echo.Context, err error) error {
    return writeErrorStatus(c, err, 0)
}

// writeErrorStatus is writeError with an override for EVENT_NOT_FOUND,
// used by the event resource routes where a missing id is a 404.
func writeErrorStatus(c echo.Context, err error, notFound int) error {
    kind := service.KindOf(err)
    status := statusFor(kind)
    if kind == service.KindEventNotFound && notFound != 0 {
        status = notFound
    }
    msg := "internal error"
    var se *service.Error
    if errors.As(err, &se) && kind != service.KindInternal {
        msg = se.Message
    }
    if status >= http.StatusInternalServerError {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    }
    if kind == service.KindStorageUnavailable {
        c.Response().Header().Set("Retry-After", "1")
    }
    return c.JSON(status, echo.Map{"error": string(kind), "message": msg})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": string(service.KindInvalidInput), "message": msg})
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
