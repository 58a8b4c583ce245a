package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAuth() AuthConfig {
	return AuthConfig{
		ServerURL:       "https://sso.example.com/cas",
		PublicURL:       "https://gateway.example.com",
		PostLogoutURL:   "/",
		SessionTTL:      8 * time.Hour,
		ValidateTimeout: 5 * time.Second,
	}
}

func TestAuthConfigSanitize(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validAuth()
		require.NoError(t, cfg.Sanitize())
	})

	t.Run("requires server url", func(t *testing.T) {
		cfg := validAuth()
		cfg.ServerURL = ""
		assert.ErrorContains(t, cfg.Sanitize(), "CAS_SERVER_URL")
	})

	t.Run("requires absolute public url", func(t *testing.T) {
		cfg := validAuth()
		cfg.PublicURL = "gateway.example.com"
		assert.ErrorContains(t, cfg.Sanitize(), "absolute")
	})

	t.Run("trims trailing slash from public url", func(t *testing.T) {
		cfg := validAuth()
		cfg.PublicURL = "https://gateway.example.com/"
		require.NoError(t, cfg.Sanitize())
		assert.Equal(t, "https://gateway.example.com", cfg.PublicURL)
	})

	t.Run("admin prefixes must be rooted", func(t *testing.T) {
		cfg := validAuth()
		cfg.AdminPrefixes = []string{"admin/"}
		assert.ErrorContains(t, cfg.Sanitize(), "ADMIN_PREFIXES")
	})
}

func TestAuthConfigLoginURL(t *testing.T) {
	cfg := validAuth()
	require.NoError(t, cfg.Sanitize())

	got := cfg.LoginURL("https://gateway.example.com/api/orders?page=2")
	assert.Equal(t,
		"https://sso.example.com/cas/login?service=https%3A%2F%2Fgateway.example.com%2Fapi%2Forders%3Fpage%3D2",
		got)
}

func TestTokenConfigSanitize(t *testing.T) {
	cfg := TokenConfig{SigningKey: "0123456789abcdef0123456789abcdef", Issuer: "casgate", TTL: 2 * time.Minute}
	require.NoError(t, cfg.Sanitize())

	cfg.SigningKey = "short"
	assert.ErrorContains(t, cfg.Sanitize(), "32 bytes")
}

func TestRoutesConfigSanitize(t *testing.T) {
	t.Run("parses and orders by longest prefix", func(t *testing.T) {
		cfg := RoutesConfig{Raw: "/api=http://fallback:8080;/api/orders=http://orders:8080"}
		require.NoError(t, cfg.Sanitize())

		routes := cfg.Routes()
		require.Len(t, routes, 2)
		assert.Equal(t, "/api/orders", routes[0].Prefix)
		assert.Equal(t, "http://orders:8080", routes[0].Target)
		assert.Equal(t, "/api", routes[1].Prefix)
	})

	t.Run("rejects relative target", func(t *testing.T) {
		cfg := RoutesConfig{Raw: "/api=orders:8080"}
		assert.ErrorContains(t, cfg.Sanitize(), "absolute URL")
	})

	t.Run("rejects duplicate prefix", func(t *testing.T) {
		cfg := RoutesConfig{Raw: "/api=http://a:1;/api=http://b:2"}
		assert.ErrorContains(t, cfg.Sanitize(), "duplicated")
	})

	t.Run("rejects empty", func(t *testing.T) {
		cfg := RoutesConfig{Raw: "  "}
		assert.ErrorContains(t, cfg.Sanitize(), "ROUTES")
	})

	t.Run("rejects gateway-owned prefixes", func(t *testing.T) {
		for _, reserved := range []string{"/healthz", "/user"} {
			cfg := RoutesConfig{Raw: reserved + "=http://backend:8080"}
			assert.ErrorContains(t, cfg.Sanitize(), "gateway", reserved)
		}
	})
}

func TestHTTPConfigSanitize(t *testing.T) {
	cfg := HTTPConfig{Addr: ":8080", LogoutPath: "/logout", StaticExemptPrefixes: []string{"/assets/"}}
	require.NoError(t, cfg.Sanitize())

	cfg.LogoutPath = "logout"
	assert.ErrorContains(t, cfg.Sanitize(), "LOGOUT_PATH")
}
