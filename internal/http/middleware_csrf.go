package httpx

import (
	"crypto/subtle"
	"net/http"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
)

// requiresCSRFValidation returns true if the HTTP method requires CSRF validation.
// Safe methods (GET, HEAD, OPTIONS, TRACE) are exempt.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// validCSRFToken verifies the request header against the session-bound token
// in constant time. The token is never accepted from query parameters; a URL
// is too easy to leak through logs and referers.
func validCSRFToken(r *http.Request, session *domainauth.Session) bool {
	if session == nil || session.CSRFToken == "" {
		return false
	}
	headerToken := r.Header.Get(CSRFHeaderName)
	if headerToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(headerToken), []byte(session.CSRFToken)) == 1
}

// ensureCSRFCookie keeps the script-readable cookie in sync with the
// session-bound token. The cookie changes exactly when the session id does.
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, cookies cookieWriter, session *domainauth.Session) {
	if cookieValue(r, CSRFCookieName) == session.CSRFToken {
		return
	}
	cookies.setCSRF(w, session.CSRFToken, session.ExpiresAt)
}
