package service

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/event-ticketing/internal/auth"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventStore is the persistence the event service needs.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event, addCapacity int64) error
	Delete(ctx context.Context, id, organizerID uint64) error
}

// EventService lets organizers manage their events and anyone browse them.
type EventService struct {
	store   EventStore
	logger  *log.Logger
	timeout time.Duration
}

func NewEventService(store EventStore, timeout time.Duration, logger *log.Logger) *EventService {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	if logger == nil {
		logger = log.New("event")
	}
	return &EventService{store: store, logger: logger, timeout: timeout}
}

// EventInput carries the fields of a new event.
type EventInput struct {
	Title            string
	Description      string
	Date             time.Time
	Venue            string
	NormalPriceCents int64
	VIPPriceCents    int64
	Capacity         int64
}

func (in EventInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return newError(KindInvalidInput, "title is required", nil)
	case in.Date.IsZero():
		return newError(KindInvalidInput, "date is required", nil)
	case in.NormalPriceCents < 0 || in.VIPPriceCents < 0:
		return newError(KindInvalidInput, "prices must not be negative", nil)
	case in.Capacity < 0:
		return newError(KindInvalidInput, "capacity must not be negative", nil)
	}
	return nil
}

// EventUpdate replaces the descriptive fields of an event.  Seats can only
// be added: AddCapacity is added to the remaining count in the same
// statement that updates the row, so concurrent purchases are not lost.
type EventUpdate struct {
	Title            string
	Description      string
	Date             time.Time
	Venue            string
	NormalPriceCents int64
	VIPPriceCents    int64
	AddCapacity      int64
}

func (in EventUpdate) validate() error {
	if in.AddCapacity < 0 {
		return newError(KindInvalidInput, "add_capacity must not be negative", nil)
	}
	return EventInput{
		Title:            in.Title,
		Date:             in.Date,
		NormalPriceCents: in.NormalPriceCents,
		VIPPriceCents:    in.VIPPriceCents,
	}.validate()
}

// Create stores a new event owned by the caller.
func (s *EventService) Create(ctx context.Context, p auth.Principal, in EventInput) (*model.Event, error) {
	if !p.Can(auth.CapManageEvents) {
		return nil, newError(KindForbidden, "only organizers can create events", nil)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	e := &model.Event{
		OrganizerID:       p.UserID,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Date:              in.Date.UTC(),
		Venue:             in.Venue,
		NormalPriceCents:  in.NormalPriceCents,
		VIPPriceCents:     in.VIPPriceCents,
		RemainingCapacity: in.Capacity,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, classify(err)
	}
	s.logger.Infoj(log.JSON{"msg": "event created", "event_id": e.ID, "organizer_id": e.OrganizerID, "capacity": e.RemainingCapacity})
	return e, nil
}

// Update changes an event owned by the caller.
func (s *EventService) Update(ctx context.Context, p auth.Principal, id uint64, in EventUpdate) (*model.Event, error) {
	if !p.Can(auth.CapManageEvents) {
		return nil, newError(KindForbidden, "only organizers can update events", nil)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkOwner(ctx, p, id); err != nil {
		return nil, err
	}
	e := &model.Event{
		ID:               id,
		OrganizerID:      p.UserID,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Date:             in.Date.UTC(),
		Venue:            in.Venue,
		NormalPriceCents: in.NormalPriceCents,
		VIPPriceCents:    in.VIPPriceCents,
	}
	if err := s.store.Update(ctx, e, in.AddCapacity); err != nil {
		return nil, classify(err)
	}
	return e, nil
}

// Delete removes an event owned by the caller.  Events that already have
// tickets cannot be deleted.
func (s *EventService) Delete(ctx context.Context, p auth.Principal, id uint64) error {
	if !p.Can(auth.CapManageEvents) {
		return newError(KindForbidden, "only organizers can delete events", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkOwner(ctx, p, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id, p.UserID); err != nil {
		if KindOf(classify(err)) == KindConflict {
			return newError(KindConflict, "event has tickets", err)
		}
		return classify(err)
	}
	s.logger.Infoj(log.JSON{"msg": "event deleted", "event_id": id, "organizer_id": p.UserID})
	return nil
}

// checkOwner distinguishes a missing event from one owned by somebody else.
func (s *EventService) checkOwner(ctx context.Context, p auth.Principal, id uint64) error {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return classify(err)
	}
	if e.OrganizerID != p.UserID {
		return newError(KindForbidden, "event belongs to another organizer", nil)
	}
	return nil
}

// List returns all events.  No authentication is required.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return events, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id uint64) (*model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return e, nil
}
