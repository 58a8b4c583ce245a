package config

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig describes the listening server and cookie policy.
type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`

	// CookieDomain scopes the session and CSRF cookies. Empty means host-only.
	CookieDomain string `env:"COOKIE_DOMAIN"`
	// CookieSecure should only be disabled for plain-HTTP development setups.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`

	// StaticExemptPrefixes bypass authentication entirely.
	StaticExemptPrefixes []string `env:"STATIC_EXEMPT_PREFIXES" envSeparator:"," envDefault:"/index.html,/assets/,/favicon.ico"`

	// LogoutPath is the local logout endpoint.
	LogoutPath string `env:"LOGOUT_PATH" envDefault:"/logout"`
}

func (c *HTTPConfig) Sanitize() error {
	if c.Addr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if !strings.HasPrefix(c.LogoutPath, "/") {
		return fmt.Errorf("LOGOUT_PATH must start with /")
	}
	for _, p := range c.StaticExemptPrefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("STATIC_EXEMPT_PREFIXES entry %q must start with /", p)
		}
	}
	return nil
}
