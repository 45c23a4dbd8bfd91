// Package memory is an in-process implementation of the event, ticket and
// capacity stores.  It backs STORE_DRIVER=memory for local runs and the
// service tests.  It offers no transactions, so the purchase service falls
// back to compensating a reservation when a ticket write fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// Store keeps events and tickets in maps guarded by one mutex.
type Store struct {
	mu         sync.Mutex
	events     map[uint64]*model.Event
	tickets    []model.Ticket
	nextEvent  uint64
	nextTicket uint64
	now        func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		events: make(map[uint64]*model.Event),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of e and assigns its ID and timestamps.
func (s *Store) Create(ctx context.Context, e *model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEvent++
	now := s.now()
	e.ID = s.nextEvent
	e.CreatedAt, e.UpdatedAt = now, now
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

// GetByID returns a copy of the event or repository.ErrEventNotFound.
func (s *Store) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

// List returns all events ordered by date.
func (s *Store) List(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// Update mirrors repository.EventRepo.Update: descriptive fields are
// replaced and addCapacity is added to the live counter.
func (s *Store) Update(ctx context.Context, e *model.Event, addCapacity int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[e.ID]
	if !ok || cur.OrganizerID != e.OrganizerID {
		return repository.ErrEventNotFound
	}
	cur.Title = e.Title
	cur.Description = e.Description
	cur.Date = e.Date
	cur.Venue = e.Venue
	cur.NormalPriceCents = e.NormalPriceCents
	cur.VIPPriceCents = e.VIPPriceCents
	cur.RemainingCapacity += addCapacity
	cur.UpdatedAt = s.now()
	*e = *cur
	return nil
}

// Delete removes an event that has no tickets.
func (s *Store) Delete(ctx context.Context, id, organizerID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.OrganizerID != organizerID {
		return repository.ErrEventNotFound
	}
	for _, t := range s.tickets {
		if t.EventID == id {
			return repository.ErrConflict
		}
	}
	delete(s.events, id)
	return nil
}

// ReserveSeat decrements the counter only while it is positive; the
// check and the decrement happen under the same lock.
func (s *Store) ReserveSeat(ctx context.Context, eventID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return repository.ErrEventNotFound
	}
	if e.RemainingCapacity <= 0 {
		return repository.ErrInsufficientCapacity
	}
	e.RemainingCapacity--
	return nil
}

// ReleaseSeat returns one seat to the event.
func (s *Store) ReleaseSeat(ctx context.Context, eventID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return repository.ErrEventNotFound
	}
	e.RemainingCapacity++
	return nil
}

// Tickets is the ticket side of the store.  It shares the lock and data of
// its parent Store and satisfies the same contract as repository.TicketRepo.
type Tickets struct{ s *Store }

// Tickets returns the ticket store view.
func (s *Store) Tickets() *Tickets { return &Tickets{s: s} }

// Create appends a ticket.  A request ID already used by the same user
// yields repository.ErrDuplicateRequest.
func (t *Tickets) Create(ctx context.Context, tk *model.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if tk.RequestID != "" {
		for _, existing := range s.tickets {
			if existing.UserID == tk.UserID && existing.RequestID == tk.RequestID {
				return repository.ErrDuplicateRequest
			}
		}
	}
	s.nextTicket++
	tk.ID = s.nextTicket
	tk.CreatedAt = s.now()
	s.tickets = append(s.tickets, *tk)
	return nil
}

// GetByRequestID finds the ticket a user bought with requestID.
func (t *Tickets) GetByRequestID(ctx context.Context, userID uint64, requestID string) (*model.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tk := range s.tickets {
		if tk.UserID == userID && tk.RequestID == requestID {
			cp := tk
			return &cp, nil
		}
	}
	return nil, repository.ErrTicketNotFound
}

// ListByUser returns the user's tickets, newest first.
func (t *Tickets) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Ticket, 0)
	for i := len(s.tickets) - 1; i >= 0; i-- {
		if s.tickets[i].UserID == userID {
			out = append(out, s.tickets[i])
		}
	}
	return out, nil
}

// Count returns the number of stored tickets.
func (t *Tickets) Count() int {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return len(t.s.tickets)
}
