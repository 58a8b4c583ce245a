package httpx

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	apperrors "github.com/casgate/casgate/internal/errors"
	"github.com/casgate/casgate/internal/ports"
	"github.com/casgate/casgate/internal/service"
)

// Stage is one step of the gateway pipeline. Handle either writes the
// response and stops the chain (false), or lets the request continue,
// optionally replaced (e.g. with session context attached).
type Stage interface {
	Name() string
	Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool)
}

// Chain runs stages strictly in order. The final stage is expected to
// terminate every request it receives.
type Chain struct {
	stages []Stage
}

func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

func (c *Chain) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Every stage compares prefixes against the request path, so dot segments
	// and duplicate slashes must be resolved before the first comparison. A
	// spelling like /assets/../api or /api/./admin must gate (and forward)
	// exactly like its canonical form.
	if cleaned := cleanPath(r.URL.Path); cleaned != r.URL.Path {
		r.URL.Path = cleaned
		r.URL.RawPath = ""
	}

	for _, s := range c.stages {
		next, proceed := s.Handle(w, r)
		if !proceed {
			return
		}
		if next != nil {
			r = next
		}
	}
	http.NotFound(w, r)
}

// cleanPath canonicalizes a request path, preserving a trailing slash the way
// net/http's mux does.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	cp := path.Clean(p)
	if cp != "/" && strings.HasSuffix(p, "/") {
		cp += "/"
	}
	return cp
}

// serviceURL reconstructs the externally visible URL of the request, minus
// any ticket parameter. This is both the CAS service identifier and the
// post-login redirect target, so the two always agree.
func serviceURL(publicURL string, r *http.Request) string {
	u := publicURL + r.URL.EscapedPath()
	q := r.URL.Query()
	q.Del(ticketParam)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// redirectToLogin sends a browser to the SSO login page with the original URL
// as the service parameter, so the user lands back where they started.
func redirectToLogin(w http.ResponseWriter, r *http.Request, loginURL func(string) string, publicURL string) {
	http.Redirect(w, r, loginURL(serviceURL(publicURL, r)), http.StatusFound)
}

// ticketStage terminates the login callback: any GET carrying a ticket
// parameter is a return from the SSO server.
type ticketStage struct {
	auth      *service.AuthService
	cookies   cookieWriter
	publicURL string
	loginURL  func(string) string
	logger    *slog.Logger
}

func (s *ticketStage) Name() string { return "ticket" }

func (s *ticketStage) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if r.Method != http.MethodGet {
		return r, true
	}
	ticket := r.URL.Query().Get(ticketParam)
	if ticket == "" {
		return r, true
	}

	target := serviceURL(s.publicURL, r)
	res, err := s.auth.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Ticket:             ticket,
		ServiceURL:         target,
		PresentedSessionID: cookieValue(r, SessionCookieName),
		RemoteAddr:         r.RemoteAddr,
	})
	if err != nil {
		s.logger.Warn("login callback failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		// Browsers restart the login flow; a fresh ticket usually resolves
		// rejections and transient SSO outages alike.
		if wantsHTML(r) {
			redirectToLogin(w, r, s.loginURL, s.publicURL)
			return nil, false
		}
		writeAppError(w, err)
		return nil, false
	}

	sess := res.Session
	s.cookies.setSession(w, sess.ID, sess.ExpiresAt)
	s.cookies.setCSRF(w, sess.CSRFToken, sess.ExpiresAt)

	// Redirect to the same URL stripped of the ticket so it never lands in
	// history, bookmarks, or referer headers.
	http.Redirect(w, r, target, http.StatusFound)
	return nil, false
}

// authGateStage requires a live session on every non-exempt path and
// enforces the admin role on admin prefixes.
type authGateStage struct {
	auth          *service.AuthService
	cookies       cookieWriter
	publicURL     string
	loginURL      func(string) string
	exemptPaths   []string
	adminPrefixes []string
}

func (s *authGateStage) Name() string { return "auth-gate" }

func (s *authGateStage) exempt(path string) bool {
	if path == "/healthz" {
		return true
	}
	for _, p := range s.exemptPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (s *authGateStage) admin(path string) bool {
	for _, p := range s.adminPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (s *authGateStage) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if s.exempt(r.URL.Path) {
		return r, true
	}

	presented := cookieValue(r, SessionCookieName)
	session, err := s.auth.GetSession(r.Context(), presented)
	if err != nil {
		if apperrors.IsUnauthenticated(err) {
			s.cookies.clearSession(w)
			s.cookies.clearCSRF(w)
			if wantsHTML(r) {
				redirectToLogin(w, r, s.loginURL, s.publicURL)
				return nil, false
			}
		}
		writeAppError(w, err)
		return nil, false
	}

	// A rotation beat us to the old id; move the browser onto the successor.
	if session.ID != presented {
		s.cookies.setSession(w, session.ID, session.ExpiresAt)
	}
	ensureCSRFCookie(w, r, s.cookies, session)

	if s.admin(r.URL.Path) && !session.Principal.HasRole(domainauth.RoleAdmin) {
		writeAppError(w, apperrors.InsufficientRole("admin role required"))
		return nil, false
	}

	s.auth.Touch(r.Context(), *session)

	return r.WithContext(SetSessionInContext(r.Context(), session)), true
}

// csrfStage verifies the anti-forgery token on state-changing requests.
// Requests without a session (exempt paths) pass through untouched.
type csrfStage struct{}

func (s *csrfStage) Name() string { return "csrf" }

func (s *csrfStage) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok || !requiresCSRFValidation(r.Method) {
		return r, true
	}
	if !validCSRFToken(r, session) {
		writeAppError(w, apperrors.CSRFRejected("missing or mismatched anti-forgery token"))
		return nil, false
	}
	return r, true
}

// tokenStage replaces inbound identity headers with gateway-minted ones so a
// client can never smuggle its own toward a backend.
type tokenStage struct {
	tokens ports.TokenIssuer
	logger *slog.Logger
}

func (s *tokenStage) Name() string { return "token" }

func (s *tokenStage) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	r.Header.Del("Authorization")
	r.Header.Del(ForwardedUserHeader)

	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		return r, true
	}

	tok, err := s.tokens.Issue(session.Principal)
	if err != nil {
		s.logger.Error("token issue failed", slog.String("error", err.Error()))
		writeAppError(w, apperrors.Internal("token issue failed"))
		return nil, false
	}
	r.Header.Set("Authorization", "Bearer "+tok)
	r.Header.Set(ForwardedUserHeader, session.Principal.ExternalID)
	return r, true
}

// logoutStage owns the local logout endpoint.
type logoutStage struct {
	auth          *service.AuthService
	cookies       cookieWriter
	logoutPath    string
	postLogoutURL string
}

func (s *logoutStage) Name() string { return "logout" }

func (s *logoutStage) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if r.URL.Path != s.logoutPath {
		return r, true
	}
	if r.Method != http.MethodPost {
		WriteError(w, ErrorParams{
			Code:    http.StatusMethodNotAllowed,
			ErrCode: "method_not_allowed",
			Message: "logout requires POST",
		})
		return nil, false
	}

	sessionID := cookieValue(r, SessionCookieName)
	if session, err := s.auth.GetSession(r.Context(), sessionID); err == nil {
		// A live session may only be terminated by a request that proves it
		// came from our own frontend.
		if !validCSRFToken(r, session) {
			writeAppError(w, apperrors.CSRFRejected("missing or mismatched anti-forgery token"))
			return nil, false
		}
		if logoutErr := s.auth.Logout(r.Context(), session.ID, r.RemoteAddr); logoutErr != nil {
			writeAppError(w, apperrors.Internal("logout failed"))
			return nil, false
		}
	}

	s.cookies.clearSession(w)
	s.cookies.clearCSRF(w)

	if wantsHTML(r) {
		http.Redirect(w, r, s.postLogoutURL, http.StatusFound)
		return nil, false
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
	return nil, false
}
