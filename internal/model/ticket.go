package model

import (
	"time"

	"github.com/iliyamo/event-ticketing/internal/pricing"
)

// Ticket records one seat bought by a customer for an event.  A ticket
// is written exactly once per successful purchase and never modified.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event the seat belongs to.
//  UserID     – customer who bought it.
//  Category   – Normal or VIP.
//  RequestID  – client supplied idempotency key; empty when none was sent.
//  PriceCents – price charged at purchase time.
//  CreatedAt  – creation timestamp.
type Ticket struct {
	ID         uint64           `json:"id"`                   // tickets.id
	EventID    uint64           `json:"event_id"`             // tickets.event_id
	UserID     uint64           `json:"user_id"`              // tickets.user_id
	Category   pricing.Category `json:"category"`             // tickets.category
	RequestID  string           `json:"request_id,omitempty"` // tickets.request_id (nullable)
	PriceCents int64            `json:"price_cents"`          // tickets.price_cents
	CreatedAt  time.Time        `json:"created_at"`           // tickets.created_at
}

// Receipt is returned to the buyer after a successful purchase.  It is
// derived from the ticket and is not stored on its own.
type Receipt struct {
	Ticket     Ticket `json:"ticket"`
	PriceCents int64  `json:"price_cents"`
}
