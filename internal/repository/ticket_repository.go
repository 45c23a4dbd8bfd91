package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo provides insert and read access to the tickets table.
// Tickets are append-only: there is no update or delete.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, event_id, user_id, category, request_id, price_cents, created_at`

func scanTicket(row rowScanner, t *model.Ticket) error {
	var reqID sql.NullString
	if err := row.Scan(&t.ID, &t.EventID, &t.UserID, &t.Category, &reqID, &t.PriceCents, &t.CreatedAt); err != nil {
		return err
	}
	t.RequestID = reqID.String
	return nil
}

// Create inserts a ticket and populates its generated ID and created_at.
// When ctx carries a transaction the insert joins it.  A request ID that
// was already used by the same user yields ErrDuplicateRequest.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets (event_id, user_id, category, request_id, price_cents) VALUES (?, ?, ?, ?, ?)`
	// empty request IDs are stored as NULL so the unique key ignores them
	reqID := sql.NullString{String: t.RequestID, Valid: t.RequestID != ""}
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, q, t.EventID, t.UserID, string(t.Category), reqID, t.PriceCents)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateRequest
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return db.QueryRowContext(ctx, `SELECT created_at FROM tickets WHERE id = ?`, t.ID).Scan(&t.CreatedAt)
}

// GetByRequestID returns the ticket the user bought with requestID, or
// ErrTicketNotFound.
func (r *TicketRepo) GetByRequestID(ctx context.Context, userID uint64, requestID string) (*model.Ticket, error) {
	var t model.Ticket
	err := scanTicket(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = ? AND request_id = ?`, userID, requestID), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByUser returns all tickets owned by userID, newest first.  When the
// user has no tickets an empty slice is returned.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}
