// Package service holds the ticketing use cases.  Services receive the
// caller as an explicit auth.Principal and return *Error values whose Kind
// the HTTP layer maps to a status code.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/event-ticketing/internal/auth"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/pricing"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// EventReader loads a single event.
type EventReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
}

// Ledger is the capacity counter.  ReserveSeat must decrement only when a
// seat is left, as one atomic step.
type Ledger interface {
	ReserveSeat(ctx context.Context, eventID uint64) error
	ReleaseSeat(ctx context.Context, eventID uint64) error
}

// TicketStore persists tickets.
type TicketStore interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByRequestID(ctx context.Context, userID uint64, requestID string) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
}

// Transactor runs fn so that every store call made with the context it
// receives commits or rolls back together.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PurchaseNotifier receives purchase outcomes for downstream consumers.
type PurchaseNotifier interface {
	TicketPurchased(ctx context.Context, ev queue.TicketPurchasedEvent) error
	PurchaseNeedsReconciliation(ctx context.Context, ev queue.ReconcileEvent) error
}

const (
	defaultStoreTimeout  = 5 * time.Second
	defaultNotifyTimeout = 3 * time.Second
)

// PurchaseService sells tickets.
type PurchaseService struct {
	events        EventReader
	ledger        Ledger
	tickets       TicketStore
	tx            Transactor
	notifier      PurchaseNotifier
	logger        *log.Logger
	timeout       time.Duration
	notifyTimeout time.Duration
}

type PurchaseOption func(*PurchaseService)

// WithTransactor makes the seat reservation and the ticket insert commit
// together.  Without it a failed ticket write is compensated by returning
// the seat.
func WithTransactor(tx Transactor) PurchaseOption {
	return func(s *PurchaseService) { s.tx = tx }
}

// WithNotifier sets where purchase and reconciliation events are sent.
func WithNotifier(n PurchaseNotifier) PurchaseOption {
	return func(s *PurchaseService) { s.notifier = n }
}

// WithLogger overrides the service logger.
func WithLogger(l *log.Logger) PurchaseOption {
	return func(s *PurchaseService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreTimeout bounds the store calls of a single purchase.
func WithStoreTimeout(d time.Duration) PurchaseOption {
	return func(s *PurchaseService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithNotifyTimeout bounds how long a purchase waits on the notifier
// after the ticket is recorded.
func WithNotifyTimeout(d time.Duration) PurchaseOption {
	return func(s *PurchaseService) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func NewPurchaseService(events EventReader, ledger Ledger, tickets TicketStore, opts ...PurchaseOption) *PurchaseService {
	s := &PurchaseService{
		events:        events,
		ledger:        ledger,
		tickets:       tickets,
		logger:        log.New("purchase"),
		timeout:       defaultStoreTimeout,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PurchaseRequest is one ticket order.  UserID may be left zero, in which
// case the caller's own ID is used.  RequestID is an optional idempotency
// key: repeating a request with the same key returns the first receipt.
type PurchaseRequest struct {
	EventID   uint64
	UserID    uint64
	Category  string
	RequestID string
}

// Purchase reserves one seat for the caller and records the ticket.
//
// The category is validated before anything is written.  The seat counter
// is only ever decremented by the ledger's conditional update, so an event
// is never oversold no matter how many purchases run at once.
func (s *PurchaseService) Purchase(ctx context.Context, p auth.Principal, req PurchaseRequest) (*model.Receipt, error) {
	if !p.Can(auth.CapPurchaseTicket) {
		return nil, newError(KindForbidden, "caller may not purchase tickets", nil)
	}
	userID := req.UserID
	if userID == 0 {
		userID = p.UserID
	} else if userID != p.UserID {
		return nil, newError(KindForbidden, "cannot purchase on behalf of another user", nil)
	}
	cat, err := pricing.ParseCategory(req.Category)
	if err != nil {
		return nil, newError(KindInvalidCategory, fmt.Sprintf("unknown category %q", req.Category), err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if req.RequestID != "" {
		if rc, err := s.replay(ctx, userID, req.EventID, cat, req.RequestID); rc != nil || err != nil {
			return rc, err
		}
	}

	ev, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, classify(err)
	}

	t := &model.Ticket{
		EventID:    ev.ID,
		UserID:     userID,
		Category:   cat,
		RequestID:  req.RequestID,
		PriceCents: pricing.PriceFor(cat, ev.NormalPriceCents, ev.VIPPriceCents),
	}

	if s.tx != nil {
		err = s.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := s.ledger.ReserveSeat(ctx, ev.ID); err != nil {
				return err
			}
			return s.tickets.Create(ctx, t)
		})
	} else {
		err = s.reserveAndWrite(ctx, t)
	}
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		// Lost a race with a concurrent request carrying the same key.
		// The seat has already been returned.
		if errors.Is(err, repository.ErrDuplicateRequest) {
			rc, rerr := s.replay(ctx, userID, req.EventID, cat, req.RequestID)
			if rerr != nil {
				return nil, rerr
			}
			if rc != nil {
				return rc, nil
			}
		}
		return nil, classify(err)
	}

	s.logger.Infoj(log.JSON{
		"msg":         "ticket purchased",
		"ticket_id":   t.ID,
		"event_id":    t.EventID,
		"user_id":     t.UserID,
		"category":    string(t.Category),
		"price_cents": t.PriceCents,
	})
	s.notifyPurchased(ctx, ev, t)

	return &model.Receipt{Ticket: *t, PriceCents: t.PriceCents}, nil
}

// reserveAndWrite is the path taken when the stores cannot share a
// transaction.  A failed ticket write gives the seat back; if that fails
// too the counter is left one short and the purchase is reported for
// reconciliation.
func (s *PurchaseService) reserveAndWrite(ctx context.Context, t *model.Ticket) error {
	if err := s.ledger.ReserveSeat(ctx, t.EventID); err != nil {
		return err
	}
	werr := s.tickets.Create(ctx, t)
	if werr == nil {
		return nil
	}

	// The release has to run even if the caller has gone away.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	rerr := s.ledger.ReleaseSeat(rctx, t.EventID)
	if rerr == nil {
		return werr
	}

	s.logger.Errorj(log.JSON{
		"msg":           "seat reserved but ticket not recorded",
		"event_id":      t.EventID,
		"user_id":       t.UserID,
		"category":      string(t.Category),
		"request_id":    t.RequestID,
		"write_error":   werr.Error(),
		"release_error": rerr.Error(),
	})
	if s.notifier != nil {
		nctx, ncancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer ncancel()
		err := s.notifier.PurchaseNeedsReconciliation(nctx, queue.ReconcileEvent{
			EventID:    t.EventID,
			UserID:     t.UserID,
			Category:   string(t.Category),
			RequestID:  t.RequestID,
			WriteError: werr.Error(),
			ReleaseErr: rerr.Error(),
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			s.logger.Errorj(log.JSON{"msg": "reconcile publish failed", "event_id": t.EventID, "error": err.Error()})
		}
	}
	return newError(KindPartialFailure, "seat reserved but ticket not recorded", errors.Join(werr, rerr))
}

// replay returns the receipt of an earlier purchase made with requestID,
// or nil when there is none.  A key reused for a different order is a
// conflict.
func (s *PurchaseService) replay(ctx context.Context, userID, eventID uint64, cat pricing.Category, requestID string) (*model.Receipt, error) {
	t, err := s.tickets.GetByRequestID(ctx, userID, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	if t.EventID != eventID || t.Category != cat {
		return nil, newError(KindConflict, "request id already used for a different purchase", nil)
	}
	return &model.Receipt{Ticket: *t, PriceCents: t.PriceCents}, nil
}

func (s *PurchaseService) notifyPurchased(ctx context.Context, ev *model.Event, t *model.Ticket) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	err := s.notifier.TicketPurchased(nctx, queue.TicketPurchasedEvent{
		TicketID:    t.ID,
		EventID:     t.EventID,
		EventTitle:  ev.Title,
		UserID:      t.UserID,
		Category:    string(t.Category),
		RequestID:   t.RequestID,
		PriceCents:  t.PriceCents,
		PurchasedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warnj(log.JSON{"msg": "purchase publish failed", "ticket_id": t.ID, "error": err.Error()})
	}
}

// ListUserTickets returns the tickets owned by userID.  Customers may only
// list their own; userID zero means the caller.
func (s *PurchaseService) ListUserTickets(ctx context.Context, p auth.Principal, userID uint64) ([]model.Ticket, error) {
	if !p.Can(auth.CapViewOwnTickets) {
		return nil, newError(KindForbidden, "caller may not list tickets", nil)
	}
	if userID == 0 {
		userID = p.UserID
	} else if userID != p.UserID {
		return nil, newError(KindForbidden, "cannot list another user's tickets", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return tickets, nil
}

// classify turns store errors into service errors.
func classify(err error) error {
	var se *Error
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.Canceled):
		return newError(KindCanceled, "request canceled", err)
	case errors.Is(err, repository.ErrEventNotFound):
		return newError(KindEventNotFound, "event not found", err)
	case errors.Is(err, repository.ErrInsufficientCapacity):
		return newError(KindInsufficientCapacity, "no seats left", err)
	case errors.Is(err, repository.ErrForbidden):
		return newError(KindForbidden, "forbidden", err)
	case errors.Is(err, repository.ErrConflict):
		return newError(KindConflict, "conflicting state", err)
	case repository.IsTransient(err):
		return newError(KindStorageUnavailable, "storage unavailable, retry later", err)
	}
	return newError(KindInternal, "storage error", err)
}
