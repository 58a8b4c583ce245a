package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/casgate/casgate/config"
	"github.com/casgate/casgate/internal/adapters/authroles"
	"github.com/casgate/casgate/internal/adapters/cas"
	redisadapter "github.com/casgate/casgate/internal/adapters/redis"
	"github.com/casgate/casgate/internal/adapters/token"
	"github.com/casgate/casgate/internal/data"
	"github.com/casgate/casgate/internal/ports"
	"github.com/casgate/casgate/internal/service"
)

// AuthDeps groups inputs for BuildAuthService.
type AuthDeps struct {
	Config *config.AppConfig
	Redis  redis.UniversalClient
	DB     *sql.DB // nil disables auditing
	Logger *slog.Logger
}

// BuildAuthService assembles the auth service and token issuer from concrete
// adapters.
func BuildAuthService(deps AuthDeps) (*service.AuthService, ports.TokenIssuer, error) {
	cfg := deps.Config

	issuer, err := token.NewIssuer([]byte(cfg.Token.SigningKey), cfg.Token.Issuer, cfg.Token.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("build token issuer: %w", err)
	}

	var audit ports.AuditLog
	if deps.DB != nil {
		audit = data.NewLoginAuditRepo(deps.DB)
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Validator:  cas.NewValidator(cfg.Auth.ValidateURL(), cfg.Auth.ValidateTimeout),
		Resolver:   authroles.NewAllowListResolver(cfg.Auth.AdminUsers),
		Sessions:   redisadapter.NewSessionStore(deps.Redis),
		Tickets:    redisadapter.NewTicketIndex(deps.Redis),
		Audit:      audit,
		Logger:     deps.Logger,
		SessionTTL: cfg.Auth.SessionTTL,
	})
	return svc, issuer, nil
}
