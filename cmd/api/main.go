package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/agreewise/agreewise/internal/adapters/http"
	"github.com/agreewise/agreewise/internal/bootstrap"
	"github.com/agreewise/agreewise/internal/config"
	"github.com/agreewise/agreewise/internal/observability/logging"
)

const service = "agreewise-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, service, logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Pages:     app.Workspace,
		Analysis:  app.Workspace,
		Narration: app.Workspace,
		Questions: app.Workspace,
		UIStrings: app.UIStrings,
		Loader:    app.Loader,
		Metrics:   app.HTTPMetrics,
		Logger:    logger,
	}).Handler()
	server := &http.Server{
		Addr:         "127.0.0.1:" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.BackendTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
