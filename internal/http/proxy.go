package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/casgate/casgate/config"
	apperrors "github.com/casgate/casgate/internal/errors"
)

// route pairs a path prefix with its reverse proxy.
type route struct {
	prefix string
	proxy  *httputil.ReverseProxy
}

// Dispatcher forwards requests to backends by longest path-prefix match. The
// request path is forwarded unchanged; backends are expected to mount their
// API under the same prefix the gateway exposes.
type Dispatcher struct {
	routes []route
	logger *slog.Logger
}

// NewDispatcher builds a Dispatcher from the configured route table. Routes
// must already be sorted longest prefix first.
func NewDispatcher(routes []config.Route, logger *slog.Logger) (*Dispatcher, error) {
	d := &Dispatcher{logger: logger}
	for _, rt := range routes {
		target, err := url.Parse(rt.Target)
		if err != nil {
			return nil, fmt.Errorf("parse route target %q: %w", rt.Target, err)
		}

		proxy := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				// SetURL rewrites the path relative to the target's; keep the
				// original path as-is.
				pr.Out.URL.Path = pr.In.URL.Path
				pr.Out.URL.RawPath = pr.In.URL.RawPath
				pr.SetXForwarded()
			},
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				logger.Error("proxy error",
					slog.String("path", r.URL.Path),
					slog.String("target", target.String()),
					slog.String("error", err.Error()))
				writeAppError(w, apperrors.UpstreamUnavailable("backend unavailable"))
			},
		}
		d.routes = append(d.routes, route{prefix: rt.Prefix, proxy: proxy})
	}
	return d, nil
}

// Match returns the proxy for the longest matching prefix, if any.
func (d *Dispatcher) Match(path string) (*httputil.ReverseProxy, bool) {
	for _, rt := range d.routes {
		if strings.HasPrefix(path, rt.prefix) {
			return rt.proxy, true
		}
	}
	return nil, false
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	proxy, ok := d.Match(r.URL.Path)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "no_route",
			Message: "no backend route for path",
		})
		return
	}
	proxy.ServeHTTP(w, r)
}
