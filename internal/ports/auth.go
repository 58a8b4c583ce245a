package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
)

// ErrSessionNotFound is returned by SessionStore implementations when no live
// session exists for the given identifier.
var ErrSessionNotFound = errors.New("session not found")

// RotatedError is returned by SessionStore.Get when the requested identifier
// was invalidated by a concurrent rotation. NewID names the successor session
// so the caller can re-read instead of silently operating on stale state.
type RotatedError struct {
	NewID string
}

func (e *RotatedError) Error() string { return "session rotated" }

// TicketValidator exchanges a service ticket for an asserted identity by
// calling out to the SSO server's validation endpoint.
type TicketValidator interface {
	// Validate checks the ticket against the SSO server. serviceURL must
	// exactly match the URL the ticket was issued for.
	Validate(ctx context.Context, ticket, serviceURL string) (domainauth.Assertion, error)
}

// PrincipalResolver maps a validated assertion to an internal principal with
// a role set. Deterministic; no network calls.
type PrincipalResolver interface {
	Resolve(assertion domainauth.Assertion) (domainauth.Principal, error)
}

// SessionStore persists and retrieves user sessions in shared storage.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error

	// Rotate stores next and atomically invalidates the session identified by
	// oldID, if any. At most one rotation succeeds per pre-rotation id;
	// concurrent readers of oldID observe a RotatedError naming next.ID.
	Rotate(ctx context.Context, oldID string, next domainauth.Session) error
}

// TicketIndex tracks service-ticket bookkeeping: single-use enforcement and
// the ticket-to-session mapping consumed by single logout.
type TicketIndex interface {
	// MarkExchanged records the ticket as consumed. Returns false when the
	// ticket was already exchanged, in which case no session may be created.
	MarkExchanged(ctx context.Context, ticket string, ttl time.Duration) (bool, error)

	BindSession(ctx context.Context, ticket, sessionID string, ttl time.Duration) error
	SessionForTicket(ctx context.Context, ticket string) (string, error)
	Unbind(ctx context.Context, ticket string) error
}

// TokenIssuer mints short-lived signed bearer tokens representing the
// authenticated principal for injection into forwarded requests.
type TokenIssuer interface {
	Issue(principal domainauth.Principal) (string, error)
}

// AuditEvent categorizes a login-audit record.
type AuditEvent string

const (
	AuditLogin        AuditEvent = "login"
	AuditLogout       AuditEvent = "logout"
	AuditSingleLogout AuditEvent = "single_logout"
)

// AuditEntry is one row in the login audit trail.
type AuditEntry struct {
	UserID     string
	Event      AuditEvent
	RemoteAddr string
	OccurredAt time.Time
}

// AuditLog records authentication lifecycle events. Recording is best-effort;
// callers must not fail the request when it errors.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}
