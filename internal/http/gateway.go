package httpx

import (
	"log/slog"
	"net/http"

	"github.com/casgate/casgate/config"
	"github.com/casgate/casgate/internal/ports"
	"github.com/casgate/casgate/internal/service"
)

// GatewayOptions groups dependencies for NewGateway.
type GatewayOptions struct {
	Auth   *service.AuthService
	Tokens ports.TokenIssuer
	Logger *slog.Logger

	AuthCfg config.AuthConfig
	HTTPCfg config.HTTPConfig
	Routes  []config.Route
}

// NewGateway assembles the filter pipeline. Stage order is load-bearing:
// back-channel logout and the local logout endpoint run before the ticket
// callback, exemptions and the auth gate come next, and only gated requests
// reach CSRF verification, token injection, and the dispatcher.
func NewGateway(opts GatewayOptions) (http.Handler, error) {
	cookies := cookieWriter{
		domain: opts.HTTPCfg.CookieDomain,
		secure: opts.HTTPCfg.CookieSecure,
	}

	proxy, err := NewDispatcher(opts.Routes, opts.Logger)
	if err != nil {
		return nil, err
	}

	chain := NewChain(
		&singleLogoutStage{
			auth:   opts.Auth,
			logger: opts.Logger,
		},
		&logoutStage{
			auth:          opts.Auth,
			cookies:       cookies,
			logoutPath:    opts.HTTPCfg.LogoutPath,
			postLogoutURL: opts.AuthCfg.PostLogoutURL,
		},
		&ticketStage{
			auth:      opts.Auth,
			cookies:   cookies,
			publicURL: opts.AuthCfg.PublicURL,
			loginURL:  opts.AuthCfg.LoginURL,
			logger:    opts.Logger,
		},
		&authGateStage{
			auth:          opts.Auth,
			cookies:       cookies,
			publicURL:     opts.AuthCfg.PublicURL,
			loginURL:      opts.AuthCfg.LoginURL,
			exemptPaths:   opts.HTTPCfg.StaticExemptPrefixes,
			adminPrefixes: opts.AuthCfg.AdminPrefixes,
		},
		&csrfStage{},
		&tokenStage{
			tokens: opts.Tokens,
			logger: opts.Logger,
		},
		&dispatchStage{proxy: proxy},
	)

	var handler http.Handler = chain
	handler = Recover(opts.Logger)(handler)
	handler = Logging(opts.Logger)(handler)
	return handler, nil
}
