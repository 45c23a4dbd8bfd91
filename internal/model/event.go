package model

import "time"

// Event is a ticketed happening created by an organizer.  Customers buy
// tickets against its remaining capacity.
//
// Fields:
//  ID                – primary key identifier.
//  OrganizerID       – user who created the event and may modify it.
//  Title             – display title.
//  Description       – free text shown to customers.
//  Date              – when the event takes place (UTC).
//  Venue             – where the event takes place.
//  NormalPriceCents  – price of a Normal ticket in cents.
//  VIPPriceCents     – base price of a VIP ticket in cents, before markup.
//  RemainingCapacity – unsold seats.  Never negative; only decremented
//                      by a seat reservation.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Event struct {
	ID                uint64    `json:"id"`                 // events.id
	OrganizerID       uint64    `json:"organizer_id"`       // events.organizer_id
	Title             string    `json:"title"`              // events.title
	Description       string    `json:"description"`        // events.description
	Date              time.Time `json:"date"`               // events.event_date
	Venue             string    `json:"venue"`              // events.venue
	NormalPriceCents  int64     `json:"normal_price_cents"` // events.normal_price_cents
	VIPPriceCents     int64     `json:"vip_price_cents"`    // events.vip_price_cents
	RemainingCapacity int64     `json:"remaining_capacity"` // events.remaining_capacity
	CreatedAt         time.Time `json:"created_at"`         // events.created_at
	UpdatedAt         time.Time `json:"updated_at"`         // events.updated_at
}
