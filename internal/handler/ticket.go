package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// maxRequestIDLen matches tickets.request_id.
const maxRequestIDLen = 64

// TicketHandler serves ticket purchase and listing for customers.
type TicketHandler struct {
    Purchases *service.PurchaseService
}

// NewTicketHandler panics if svc is nil.
func NewTicketHandler(svc *service.PurchaseService) *TicketHandler {
    if svc == nil {
        panic("nil purchase service passed to NewTicketHandler")
    }
    return &TicketHandler{Purchases: svc}
}

type purchaseBody struct {
    EventID    uint64 `json:"event_id"`
    UserID     uint64 `json:"user_id"`
    Category   string `json:"category"`
    TicketType string `json:"ticket_type"` // older clients
    RequestID  string `json:"request_id"`
}

// PurchaseTicket handles POST /purchase_ticket.  The body names the event
// and the category; user_id may be omitted and defaults to the caller.
// An idempotency key can be sent as request_id or in the Idempotency-Key
// header.  Responds 200 with the receipt.
func (h *TicketHandler) PurchaseTicket(c echo.Context) error {
    p, err := getPrincipal(c)
    if err != nil {
        return unauthorized(c)
    }
    var body purchaseBody
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    if body.EventID == 0 {
        return badRequest(c, "event_id is required")
    }
    if body.Category == "" {
        body.Category = body.TicketType
    }
    reqID := strings.TrimSpace(body.RequestID)
    if reqID == "" {
        reqID = strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
    }
    if len(reqID) > maxRequestIDLen {
        return badRequest(c, "request_id is too long")
    }

    rc, err := h.Purchases.Purchase(c.Request().Context(), p, service.PurchaseRequest{
        EventID:   body.EventID,
        UserID:    body.UserID,
        Category:  body.Category,
        RequestID: reqID,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":     "Ticket purchased successfully",
        "ticket":      rc.Ticket,
        "price_cents": rc.PriceCents,
    })
}

// ListMyTickets handles GET /v1/my-tickets.
func (h *TicketHandler) ListMyTickets(c echo.Context) error {
    p, err := getPrincipal(c)
    if err != nil {
        return unauthorized(c)
    }
    tickets, err := h.Purchases.ListUserTickets(c.Request().Context(), p, 0)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}
