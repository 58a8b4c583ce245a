package httpx

// Cookie and header names owned by the gateway. The CSRF pair follows the
// XSRF-TOKEN / X-XSRF-TOKEN convention that stock frontend HTTP clients
// understand out of the box.
const (
	// SessionCookieName carries the opaque session id. HttpOnly.
	SessionCookieName = "CASGATE_SESSION"

	// CSRFCookieName is script-readable so the frontend can echo the token.
	CSRFCookieName = "XSRF-TOKEN"
	// CSRFHeaderName is the request header checked on state-changing methods.
	CSRFHeaderName = "X-XSRF-TOKEN"

	// ForwardedUserHeader names the authenticated user toward backends.
	ForwardedUserHeader = "X-Forwarded-User"

	// ticketParam is the service-ticket query parameter on login callbacks.
	ticketParam = "ticket"

	// logoutRequestField is the form field carrying a back-channel SAML
	// LogoutRequest.
	logoutRequestField = "logoutRequest"
)
