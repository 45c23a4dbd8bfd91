package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// EventHandler exposes event CRUD.  Reads are public; writes need an
// organizer token.
type EventHandler struct {
    Events *service.EventService
}

func NewEventHandler(svc *service.EventService) *EventHandler {
    if svc == nil {
        panic("nil event service passed to NewEventHandler")
    }
    return &EventHandler{Events: svc}
}

type eventBody struct {
    Title            string    `json:"title"`
    Description      string    `json:"description"`
    Date             time.Time `json:"date"` // RFC 3339
    Venue            string    `json:"venue"`
    NormalPriceCents int64     `json:"normal_price_cents"`
    VIPPriceCents    int64     `json:"vip_price_cents"`
    Capacity         int64     `json:"capacity"`     // create only
    AddCapacity      int64     `json:"add_capacity"` // update only
}

// Create handles POST /create_event.
func (h *EventHandler) Create(c echo.Context) error {
    p, err := getPrincipal(c)
    if err != nil {
        return unauthorized(c)
    }
    var b eventBody
    if err := c.Bind(&b); err != nil {
        return badRequest(c, "invalid request body")
    }
    e, err := h.Events.Create(c.Request().Context(), p, service.EventInput{
        Title:            b.Title,
        Description:      b.Description,
        Date:             b.Date,
        Venue:            b.Venue,
        NormalPriceCents: b.NormalPriceCents,
        VIPPriceCents:    b.VIPPriceCents,
        Capacity:         b.Capacity,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "Event created successfully", "event": e})
}

// Update handles PUT /update_event/:id.  Remaining capacity cannot be set
// directly; add_capacity adds seats.
func (h *EventHandler) Update(c echo.Context) error {
    p, err := getPrincipal(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid event id")
    }
    var b eventBody
    if err := c.Bind(&b); err != nil {
        return badRequest(c, "invalid request body")
    }
    e, err := h.Events.Update(c.Request().Context(), p, id, service.EventUpdate{
        Title:            b.Title,
        Description:      b.Description,
        Date:             b.Date,
        Venue:            b.Venue,
        NormalPriceCents: b.NormalPriceCents,
        VIPPriceCents:    b.VIPPriceCents,
        AddCapacity:      b.AddCapacity,
    })
    if err != nil {
        return writeErrorStatus(c, err, http.StatusNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Event updated successfully", "event": e})
}

// Delete handles DELETE /delete_event/:id.
func (h *EventHandler) Delete(c echo.Context) error {
    p, err := getPrincipal(c)
    if err != nil {
        return unauthorized(c)
    }
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid event id")
    }
    if err := h.Events.Delete(c.Request().Context(), p, id); err != nil {
        return writeErrorStatus(c, err, http.StatusNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Event deleted successfully"})
}

// List handles GET /events.
func (h *EventHandler) List(c echo.Context) error {
    events, err := h.Events.List(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Get handles GET /events/:id.
func (h *EventHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid event id")
    }
    e, err := h.Events.Get(c.Request().Context(), id)
    if err != nil {
        return writeErrorStatus(c, err, http.StatusNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"event": e})
}
