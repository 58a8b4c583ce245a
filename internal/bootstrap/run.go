package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/casgate/casgate/config"
	httpx "github.com/casgate/casgate/internal/http"
)

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

// Run wires everything together and serves until SIGINT/SIGTERM or a fatal
// server error.
func Run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.Error("close redis failed", slog.String("error", cerr.Error()))
		}
	}()

	deps := AuthDeps{Config: cfg, Redis: redisClient, Logger: logger}
	if cfg.Database.AuditEnabled {
		db, dbErr := ConnectDB(ctx, cfg.Database)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("close database failed", slog.String("error", cerr.Error()))
			}
		}()
		deps.DB = db
	} else {
		logger.Info("login auditing disabled")
	}

	authSvc, issuer, err := BuildAuthService(deps)
	if err != nil {
		return err
	}

	handler, err := httpx.NewGateway(httpx.GatewayOptions{
		Auth:    authSvc,
		Tokens:  issuer,
		Logger:  logger,
		AuthCfg: cfg.Auth,
		HTTPCfg: cfg.HTTP,
		Routes:  cfg.Routes.Routes(),
	})
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting gateway",
			slog.String("addr", cfg.HTTP.Addr),
			slog.String("sso", cfg.Auth.ServerURL))
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown http server: %w", shutdownErr)
		}
		return nil
	})

	return g.Wait()
}
