package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	apperrors "github.com/casgate/casgate/internal/errors"
	"github.com/casgate/casgate/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Validator ports.TicketValidator
	Resolver  ports.PrincipalResolver
	Sessions  ports.SessionStore
	Tickets   ports.TicketIndex
	Audit     ports.AuditLog // optional
	Logger    *slog.Logger

	SessionTTL time.Duration
	Now        func() time.Time
}

// AuthService orchestrates the login flow: ticket validation, principal
// resolution, session rotation, and logout in both directions.
type AuthService struct {
	validator ports.TicketValidator
	resolver  ports.PrincipalResolver
	sessions  ports.SessionStore
	tickets   ports.TicketIndex
	audit     ports.AuditLog
	logger    *slog.Logger

	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		validator:  opts.Validator,
		resolver:   opts.Resolver,
		sessions:   opts.Sessions,
		tickets:    opts.Tickets,
		audit:      opts.Audit,
		logger:     logger,
		sessionTTL: opts.SessionTTL,
		now:        now,
	}
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Ticket     string
	ServiceURL string
	// PresentedSessionID is the session id the browser sent alongside the
	// ticket, if any. It is invalidated so an id planted before
	// authentication never survives into the authenticated session.
	PresentedSessionID string
	RemoteAddr         string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin validates the ticket, resolves the principal, and installs a
// freshly minted session. The ticket is burned locally before the session
// exists, so a replayed callback can never produce a second session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Ticket == "" {
		return nil, apperrors.TicketRejected("ticket is required")
	}
	if input.ServiceURL == "" {
		return nil, errors.New("service URL is required")
	}

	// A client that disconnects mid-validation must not strand a half-used
	// ticket: finish the exchange regardless and let the result go unused.
	ctx = context.WithoutCancel(ctx)

	assertion, err := s.validator.Validate(ctx, input.Ticket, input.ServiceURL)
	if err != nil {
		return nil, fmt.Errorf("validate ticket: %w", err)
	}

	ok, err := s.tickets.MarkExchanged(ctx, input.Ticket, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("mark ticket exchanged: %w", err)
	}
	if !ok {
		return nil, apperrors.TicketRejected("ticket already exchanged")
	}

	principal, err := s.resolver.Resolve(assertion)
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	now := s.now()
	session := domainauth.Session{
		ID:             generateSessionID(),
		Principal:      principal,
		CSRFToken:      generateCSRFToken(),
		TicketID:       input.Ticket,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.sessionTTL),
	}

	if rotateErr := s.sessions.Rotate(ctx, input.PresentedSessionID, session); rotateErr != nil {
		return nil, fmt.Errorf("rotate session: %w", rotateErr)
	}

	if bindErr := s.tickets.BindSession(ctx, input.Ticket, session.ID, s.sessionTTL); bindErr != nil {
		// The session is live; losing the binding only disables single logout
		// for it. Log and continue.
		s.logger.Warn("bind ticket to session failed",
			slog.String("error", bindErr.Error()))
	}

	s.recordAudit(ctx, ports.AuditEntry{
		UserID:     principal.ExternalID,
		Event:      ports.AuditLogin,
		RemoteAddr: input.RemoteAddr,
		OccurredAt: now,
	})

	return &CompleteLoginResult{Session: session}, nil
}

// GetSession retrieves a session by id. When the id was rotated out from
// under the caller, the successor is followed once; callers detect the new id
// by comparing it against the one they asked for and reissue the cookie.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.Unauthenticated("no session")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		var rotated *ports.RotatedError
		if errors.As(err, &rotated) {
			session, err = s.sessions.Get(ctx, rotated.NewID)
		}
		if err != nil {
			if errors.Is(err, ports.ErrSessionNotFound) {
				return nil, apperrors.Unauthenticated("session not found")
			}
			return nil, fmt.Errorf("get session: %w", err)
		}
	}

	if session.Expired(s.now()) {
		if deleteErr := s.sessions.Delete(ctx, session.ID); deleteErr != nil {
			return nil, fmt.Errorf("delete expired session: %w", deleteErr)
		}
		return nil, apperrors.Unauthenticated("session expired")
	}

	return &session, nil
}

// Logout removes the session and its ticket binding.
func (s *AuthService) Logout(ctx context.Context, sessionID, remoteAddr string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		var rotated *ports.RotatedError
		switch {
		case errors.Is(err, ports.ErrSessionNotFound):
			return nil
		case errors.As(err, &rotated):
			return s.Logout(ctx, rotated.NewID, remoteAddr)
		default:
			return fmt.Errorf("get session: %w", err)
		}
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if session.TicketID != "" {
		if err := s.tickets.Unbind(ctx, session.TicketID); err != nil {
			s.logger.Warn("unbind ticket failed", slog.String("error", err.Error()))
		}
	}

	s.recordAudit(ctx, ports.AuditEntry{
		UserID:     session.Principal.ExternalID,
		Event:      ports.AuditLogout,
		RemoteAddr: remoteAddr,
		OccurredAt: s.now(),
	})
	return nil
}

// SingleLogout terminates the session created by the given ticket. Idempotent:
// an unknown or already-terminated ticket is not an error.
func (s *AuthService) SingleLogout(ctx context.Context, ticket string) error {
	if ticket == "" {
		return nil
	}

	sessionID, err := s.tickets.SessionForTicket(ctx, ticket)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("lookup ticket: %w", err)
	}

	var userID string
	if session, getErr := s.sessions.Get(ctx, sessionID); getErr == nil {
		userID = session.Principal.ExternalID
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.tickets.Unbind(ctx, ticket); err != nil {
		s.logger.Warn("unbind ticket failed", slog.String("error", err.Error()))
	}

	s.recordAudit(ctx, ports.AuditEntry{
		UserID:     userID,
		Event:      ports.AuditSingleLogout,
		OccurredAt: s.now(),
	})
	return nil
}

// Touch records the session's last access time. Expiry is unchanged; sessions
// have a fixed lifetime from login.
func (s *AuthService) Touch(ctx context.Context, session domainauth.Session) {
	session.LastAccessedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Warn("touch session failed", slog.String("error", err.Error()))
	}
}

func (s *AuthService) recordAudit(ctx context.Context, entry ports.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed",
			slog.String("event", string(entry.Event)),
			slog.String("error", err.Error()))
	}
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// UUID is URL-safe and has good entropy.
	return uuid.New().String()
}

// generateCSRFToken creates a 256-bit random anti-forgery token.
func generateCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("read random: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
