package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/casgate/casgate/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("load config failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := bootstrap.InitLogger(cfg.LogLevel)
	if err := bootstrap.Run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}
