package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
)

func TestRequiresCSRFValidation(t *testing.T) {
	safe := []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace}
	for _, m := range safe {
		assert.False(t, requiresCSRFValidation(m), m)
	}
	unsafe := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}
	for _, m := range unsafe {
		assert.True(t, requiresCSRFValidation(m), m)
	}
}

func TestValidCSRFToken(t *testing.T) {
	session := &domainauth.Session{CSRFToken: "expected-token"}

	t.Run("matching header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set(CSRFHeaderName, "expected-token")
		assert.True(t, validCSRFToken(r, session))
	})

	t.Run("wrong header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set(CSRFHeaderName, "wrong")
		assert.False(t, validCSRFToken(r, session))
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		assert.False(t, validCSRFToken(r, session))
	})

	t.Run("query parameter is ignored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/?"+CSRFHeaderName+"=expected-token", nil)
		assert.False(t, validCSRFToken(r, session))
	})

	t.Run("nil session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set(CSRFHeaderName, "expected-token")
		assert.False(t, validCSRFToken(r, nil))
	})

	t.Run("empty session token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set(CSRFHeaderName, "")
		assert.False(t, validCSRFToken(r, &domainauth.Session{}))
	})
}

func TestEnsureCSRFCookie(t *testing.T) {
	cookies := cookieWriter{secure: true}
	session := &domainauth.Session{
		CSRFToken: "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	t.Run("sets cookie when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		ensureCSRFCookie(w, r, cookies, session)

		result := w.Result().Cookies()
		require.Len(t, result, 1)
		assert.Equal(t, CSRFCookieName, result[0].Name)
		assert.Equal(t, "session-token", result[0].Value)
		assert.False(t, result[0].HttpOnly)
	})

	t.Run("replaces stale cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "old-token"})
		ensureCSRFCookie(w, r, cookies, session)

		result := w.Result().Cookies()
		require.Len(t, result, 1)
		assert.Equal(t, "session-token", result[0].Value)
	})

	t.Run("leaves matching cookie alone", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "session-token"})
		ensureCSRFCookie(w, r, cookies, session)

		assert.Empty(t, w.Result().Cookies())
	})
}
