package httpx

import (
	"net/http"
	"time"
)

// cookieWriter centralizes cookie attributes so the session and CSRF cookies
// always agree on domain and Secure.
type cookieWriter struct {
	domain string
	secure bool
}

func (c cookieWriter) setSession(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Domain:   c.domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secure,
		// Lax so the cookie survives the top-level redirect back from the
		// SSO server.
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieWriter) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieWriter) setCSRF(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:    CSRFCookieName,
		Value:   token,
		Path:    "/",
		Domain:  c.domain,
		Expires: expires,
		// Must be readable by frontend code so it can echo the value in the
		// request header.
		HttpOnly: false,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c cookieWriter) clearCSRF(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   -1,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
