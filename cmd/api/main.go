package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Setup(config.GetEnvironment().String())
		logger.Fatal(context.Background(), "failed to load configuration", zap.Error(err))
	}

	logger.Setup(cfg.Environment.String())
	defer logger.Sync()
	ctx := context.Background()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize server", zap.Error(err))
	}

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal(ctx, "server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info(ctx, "received signal", zap.String("signal", sig.String()))
	}

	logger.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown error", zap.Error(err))
		return
	}
	logger.Info(ctx, "server stopped")
}
