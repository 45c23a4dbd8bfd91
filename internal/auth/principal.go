// Package auth describes the authenticated caller of a request.  Tokens
// are issued by the hosted auth provider; this package only verifies them
// and answers capability questions about the caller.
package auth

import "strings"

// Role is the application role carried in the access token.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleOrganizer Role = "organizer"
)

// ParseRole normalises a role claim.  Unknown roles yield "" which grants
// no capabilities.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer
	case RoleOrganizer:
		return RoleOrganizer
	}
	return ""
}

// Capability is a single permission checked by the services.
type Capability string

const (
	CapPurchaseTicket Capability = "ticket:purchase"
	CapViewOwnTickets Capability = "ticket:read_own"
	CapManageEvents   Capability = "event:manage"
)

var roleCapabilities = map[Role][]Capability{
	RoleCustomer:  {CapPurchaseTicket, CapViewOwnTickets},
	RoleOrganizer: {CapManageEvents},
}

// Principal is the caller of a request.  It is built by the JWT middleware
// and passed explicitly to every service operation that needs a
// permission check.
type Principal struct {
	UserID uint64
	Role   Role
}

// Authenticated reports whether the principal carries a user identity.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// Can reports whether the principal holds capability c.
func (p Principal) Can(c Capability) bool {
	if !p.Authenticated() {
		return false
	}
	for _, have := range roleCapabilities[p.Role] {
		if have == c {
			return true
		}
	}
	return false
}
