// Package repository contains data access logic for events and tickets.
// This file defines the event repository, which also owns the remaining
// capacity counter of each event.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo manages persistence for events.  All methods join the
// transaction carried by ctx when one is present (see Transactor).
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// DB exposes the underlying sql.DB.
func (r *EventRepo) DB() *sql.DB {
	return r.db
}

const eventColumns = `id, organizer_id, title, description, event_date, venue,
                      normal_price_cents, vip_price_cents, remaining_capacity,
                      created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner, e *model.Event) error {
	return row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Date, &e.Venue,
		&e.NormalPriceCents, &e.VIPPriceCents, &e.RemainingCapacity,
		&e.CreatedAt, &e.UpdatedAt,
	)
}

// Create inserts a new event and reloads it so that the generated ID and
// DB-default timestamps are populated on e.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (organizer_id, title, description, event_date, venue,
                                   normal_price_cents, vip_price_cents, remaining_capacity)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, q,
		e.OrganizerID, e.Title, e.Description, e.Date.UTC(), e.Venue,
		e.NormalPriceCents, e.VIPPriceCents, e.RemainingCapacity,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return scanEvent(db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, e.ID), e)
}

// GetByID retrieves an event by its ID.  It returns ErrEventNotFound if
// there is no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	err := scanEvent(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id), &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns all events ordered by date, soonest first.  When there are
// no events an empty slice is returned.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Update writes the descriptive fields and prices of e and adds
// addCapacity seats to the remaining capacity in the same statement.
// Remaining capacity is never overwritten with a value read earlier, so
// concurrent reservations are not lost.  The row must belong to
// e.OrganizerID; otherwise ErrEventNotFound is returned.  On success e is
// reloaded from the database.
func (r *EventRepo) Update(ctx context.Context, e *model.Event, addCapacity int64) error {
	const q = `UPDATE events
               SET title = ?, description = ?, event_date = ?, venue = ?,
                   normal_price_cents = ?, vip_price_cents = ?,
                   remaining_capacity = remaining_capacity + ?
               WHERE id = ? AND organizer_id = ?`
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, q,
		e.Title, e.Description, e.Date.UTC(), e.Venue,
		e.NormalPriceCents, e.VIPPriceCents, addCapacity,
		e.ID, e.OrganizerID,
	)
	if err != nil {
		return err
	}
	// clientFoundRows=true makes this the matched, not changed, row count
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return scanEvent(db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, e.ID), e)
}

// Delete removes an event owned by organizerID.  It returns
// ErrEventNotFound when no such row exists and ErrConflict when tickets
// still reference the event.
func (r *EventRepo) Delete(ctx context.Context, id, organizerID uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM events WHERE id = ? AND organizer_id = ?`, id, organizerID)
	if err != nil {
		if isRowReferenced(err) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ReserveSeat takes one seat from the event's remaining capacity.  The
// decrement is a single guarded UPDATE: the row changes only while
// remaining_capacity > 0, and exactly one affected row means the seat was
// taken.  Concurrent callers are serialised on the row lock, so no more
// reservations than seats can ever succeed.  When nothing was updated the
// event is looked up to report ErrEventNotFound or ErrInsufficientCapacity.
func (r *EventRepo) ReserveSeat(ctx context.Context, eventID uint64) error {
	const q = `UPDATE events SET remaining_capacity = remaining_capacity - 1
               WHERE id = ? AND remaining_capacity > 0`
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, q, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, eventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	return ErrInsufficientCapacity
}

// ReleaseSeat gives one seat back to the event.  It is used only to
// compensate a reservation whose ticket could not be written.
func (r *EventRepo) ReleaseSeat(ctx context.Context, eventID uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE events SET remaining_capacity = remaining_capacity + 1 WHERE id = ?`, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
