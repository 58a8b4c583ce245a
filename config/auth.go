package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AuthConfig describes the SSO server and the session policy.
type AuthConfig struct {
	// ServerURL is the base URL of the SSO server, e.g. https://sso.example.com/cas.
	ServerURL string `env:"CAS_SERVER_URL"`
	// PublicURL is the externally visible base URL of this gateway. The
	// callback service URL is derived from it plus the request path.
	PublicURL string `env:"GATEWAY_PUBLIC_URL"`
	// PostLogoutURL is where browsers land after a local logout.
	PostLogoutURL string `env:"POST_LOGOUT_URL" envDefault:"/"`

	// AdminUsers lists external ids granted the admin role.
	AdminUsers []string `env:"ADMIN_USERS" envSeparator:","`
	// AdminPrefixes lists path prefixes that require the admin role.
	AdminPrefixes []string `env:"ADMIN_PREFIXES" envSeparator:","`

	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	ValidateTimeout time.Duration `env:"CAS_VALIDATE_TIMEOUT" envDefault:"5s"`
}

// LoginURL returns the SSO login URL that sends the user back to service.
func (c AuthConfig) LoginURL(service string) string {
	return fmt.Sprintf("%s/login?service=%s", strings.TrimRight(c.ServerURL, "/"), url.QueryEscape(service))
}

// ValidateURL returns the SSO serviceValidate endpoint.
func (c AuthConfig) ValidateURL() string {
	return strings.TrimRight(c.ServerURL, "/") + "/serviceValidate"
}

func (c *AuthConfig) Sanitize() error {
	if c.ServerURL == "" {
		return fmt.Errorf("CAS_SERVER_URL is required")
	}
	if c.PublicURL == "" {
		return fmt.Errorf("GATEWAY_PUBLIC_URL is required")
	}
	if _, err := url.Parse(c.ServerURL); err != nil {
		return fmt.Errorf("CAS_SERVER_URL invalid: %w", err)
	}
	u, err := url.Parse(c.PublicURL)
	if err != nil {
		return fmt.Errorf("GATEWAY_PUBLIC_URL invalid: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GATEWAY_PUBLIC_URL must be absolute")
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	for i, p := range c.AdminPrefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("ADMIN_PREFIXES entry %q must start with /", c.AdminPrefixes[i])
		}
	}
	return nil
}

// TokenConfig describes the bearer tokens minted for forwarded requests.
type TokenConfig struct {
	// SigningKey is the shared HMAC secret backends use to verify tokens.
	SigningKey string        `env:"TOKEN_SIGNING_KEY"`
	Issuer     string        `env:"TOKEN_ISSUER" envDefault:"casgate"`
	TTL        time.Duration `env:"TOKEN_TTL" envDefault:"2m"`
}

func (c *TokenConfig) Sanitize() error {
	if len(c.SigningKey) < 32 {
		return fmt.Errorf("TOKEN_SIGNING_KEY must be at least 32 bytes")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}
