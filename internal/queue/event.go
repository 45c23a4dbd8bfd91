// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both are declared durable by the publisher and the consumer.
const (
    TicketPurchasedQueue = "ticket.purchased"
    TicketReconcileQueue = "ticket.reconcile"
)

// TicketPurchasedEvent is published after a ticket has been committed.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type TicketPurchasedEvent struct {
    TicketID    uint64 `json:"ticket_id"`
    EventID     uint64 `json:"event_id"`
    EventTitle  string `json:"event_title"`
    UserID      uint64 `json:"user_id"`
    Category    string `json:"category"`
    RequestID   string `json:"request_id,omitempty"`
    PriceCents  int64  `json:"price_cents"`
    PurchasedAt string `json:"purchased_at"`
}

// ReconcileEvent is published when a seat was reserved, the ticket could
// not be written, and returning the seat failed too.  The event's counter
// is one lower than its ticket count until an operator repairs it.
type ReconcileEvent struct {
    EventID    uint64 `json:"event_id"`
    UserID     uint64 `json:"user_id"`
    Category   string `json:"category"`
    RequestID  string `json:"request_id,omitempty"`
    WriteError string `json:"write_error"`
    ReleaseErr string `json:"release_error"`
    OccurredAt string `json:"occurred_at"`
}
