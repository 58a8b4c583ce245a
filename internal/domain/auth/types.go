package auth

// Package auth contains domain-level types for principals and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Assertion is the raw identity statement returned by the SSO server after a
// successful ticket validation. Adapters map the wire format into this shape.
type Assertion struct {
	User       string
	Attributes map[string]string
}

// Principal is the internal identity a validated assertion resolves to.
// Immutable for the lifetime of the session that owns it.
type Principal struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Roles       []Role `json:"roles"`
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session is the server-side record persisted for an authenticated principal.
// ID is an opaque random identifier; it is replaced wholesale on every login.
type Session struct {
	ID             string    `json:"id"`
	Principal      Principal `json:"principal"`
	CSRFToken      string    `json:"csrf_token"`
	TicketID       string    `json:"ticket_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
