package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Route maps a path prefix to a backend base URL.
type Route struct {
	Prefix string
	Target string
}

// reservedPrefixes are paths the gateway serves itself; a backend route on one
// of them would never receive traffic, so it is rejected at startup.
var reservedPrefixes = []string{"/healthz", "/user"}

// RoutesConfig is the proxy route table. The env value is a semicolon-separated
// list of prefix=target pairs, e.g.
//
//	ROUTES=/api/orders=http://orders:8080;/api/users=http://users:8080
type RoutesConfig struct {
	Raw string `env:"ROUTES"`

	routes []Route
}

// Routes returns the parsed table, longest prefix first.
func (c *RoutesConfig) Routes() []Route {
	return c.routes
}

func (c *RoutesConfig) Sanitize() error {
	if strings.TrimSpace(c.Raw) == "" {
		return fmt.Errorf("ROUTES is required")
	}
	seen := map[string]bool{}
	for _, pair := range strings.Split(c.Raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		prefix, target, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("ROUTES entry %q: want prefix=target", pair)
		}
		prefix, target = strings.TrimSpace(prefix), strings.TrimSpace(target)
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("ROUTES prefix %q must start with /", prefix)
		}
		if seen[prefix] {
			return fmt.Errorf("ROUTES prefix %q duplicated", prefix)
		}
		seen[prefix] = true
		for _, reserved := range reservedPrefixes {
			if prefix == reserved {
				return fmt.Errorf("ROUTES prefix %q is served by the gateway itself", prefix)
			}
		}
		u, err := url.Parse(target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("ROUTES target %q must be an absolute URL", target)
		}
		c.routes = append(c.routes, Route{Prefix: prefix, Target: target})
	}
	if len(c.routes) == 0 {
		return fmt.Errorf("ROUTES is required")
	}
	// Longest prefix wins at match time.
	sort.Slice(c.routes, func(i, j int) bool {
		return len(c.routes[i].Prefix) > len(c.routes[j].Prefix)
	})
	return nil
}
