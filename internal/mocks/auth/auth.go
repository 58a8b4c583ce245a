package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	"github.com/casgate/casgate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TicketValidator   = (*MockTicketValidator)(nil)
	_ ports.PrincipalResolver = (*MockPrincipalResolver)(nil)
	_ ports.SessionStore      = (*MemorySessionStore)(nil)
	_ ports.TicketIndex       = (*MemoryTicketIndex)(nil)
	_ ports.TokenIssuer       = (*MockTokenIssuer)(nil)
	_ ports.AuditLog          = (*MemoryAuditLog)(nil)
)

// MockTicketValidator simulates the SSO validation endpoint.
type MockTicketValidator struct {
	ValidateFunc func(ctx context.Context, ticket, serviceURL string) (domainauth.Assertion, error)

	DefaultUser string

	mu       sync.Mutex
	Calls    int
	Services []string
}

// NewMockTicketValidator creates a validator that accepts every ticket as the
// default user.
func NewMockTicketValidator() *MockTicketValidator {
	return &MockTicketValidator{DefaultUser: "mock-user"}
}

func (m *MockTicketValidator) Validate(ctx context.Context, ticket, serviceURL string) (domainauth.Assertion, error) {
	m.mu.Lock()
	m.Calls++
	m.Services = append(m.Services, serviceURL)
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, ticket, serviceURL)
	}
	return domainauth.Assertion{User: m.DefaultUser}, nil
}

// MockPrincipalResolver maps assertions through ResolveFunc, defaulting to a
// plain user principal.
type MockPrincipalResolver struct {
	ResolveFunc func(assertion domainauth.Assertion) (domainauth.Principal, error)
}

func (m *MockPrincipalResolver) Resolve(assertion domainauth.Assertion) (domainauth.Principal, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(assertion)
	}
	return domainauth.Principal{
		ExternalID:  assertion.User,
		DisplayName: assertion.User,
		Roles:       []domainauth.Role{domainauth.RoleUser},
	}, nil
}

// MemorySessionStore is an in-memory session store with the same rotation
// semantics as the Redis adapter.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	moved    map[string]string
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
		moved:    make(map[string]string),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		if next, rotated := m.moved[id]; rotated {
			return domainauth.Session{}, &ports.RotatedError{NewID: next}
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) Rotate(ctx context.Context, oldID string, next domainauth.Session) error {
	if err := m.Save(ctx, next); err != nil {
		return err
	}
	if oldID == "" || oldID == next.ID {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[oldID]; ok {
		delete(m.sessions, oldID)
		m.moved[oldID] = next.ID
	}
	return nil
}

// Len reports the number of live sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MemoryTicketIndex is an in-memory ticket index.
type MemoryTicketIndex struct {
	mu       sync.Mutex
	used     map[string]bool
	bindings map[string]string
}

func NewMemoryTicketIndex() *MemoryTicketIndex {
	return &MemoryTicketIndex{
		used:     make(map[string]bool),
		bindings: make(map[string]string),
	}
}

func (m *MemoryTicketIndex) MarkExchanged(_ context.Context, ticket string, _ time.Duration) (bool, error) {
	if ticket == "" {
		return false, errors.New("ticket cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.used[ticket] {
		return false, nil
	}
	m.used[ticket] = true
	return true, nil
}

func (m *MemoryTicketIndex) BindSession(_ context.Context, ticket, sessionID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[ticket] = sessionID
	return nil
}

func (m *MemoryTicketIndex) SessionForTicket(_ context.Context, ticket string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bindings[ticket]
	if !ok {
		return "", ports.ErrSessionNotFound
	}
	return id, nil
}

func (m *MemoryTicketIndex) Unbind(_ context.Context, ticket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, ticket)
	return nil
}

// MockTokenIssuer returns a fixed token unless IssueFunc is set.
type MockTokenIssuer struct {
	IssueFunc func(principal domainauth.Principal) (string, error)
	Token     string
}

func (m *MockTokenIssuer) Issue(principal domainauth.Principal) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(principal)
	}
	if m.Token != "" {
		return m.Token, nil
	}
	return "test-token", nil
}

// MemoryAuditLog collects audit entries for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	Entries []ports.AuditEntry
	Err     error
}

func (m *MemoryAuditLog) Record(_ context.Context, entry ports.AuditEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

// Recorded returns a copy of the captured entries.
func (m *MemoryAuditLog) Recorded() []ports.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.AuditEntry, len(m.Entries))
	copy(out, m.Entries)
	return out
}
