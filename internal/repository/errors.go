// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete an event that already has tickets. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound indicates that no event row matched the given ID.
var ErrEventNotFound = errors.New("event not found")

// ErrInsufficientCapacity is returned by ReserveSeat when the event has
// no remaining seats.  No row is modified in that case.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrTicketNotFound indicates that no ticket row matched the lookup.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrDuplicateRequest is returned when a ticket with the same request ID
// already exists for the user.
var ErrDuplicateRequest = errors.New("duplicate request id")
