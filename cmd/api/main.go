package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careerpath-backend/internal/bootstrap"
	"careerpath-backend/internal/shared/config"
	"careerpath-backend/internal/shared/server"
	"careerpath-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.SetLogger(telemetry.New(cfg.Env, cfg.LogLevel))
	defer telemetry.Sync()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"err": err})
		telemetry.Sync()
		os.Exit(1)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			telemetry.Error("server.shutdown.failed", map[string]any{"err": err})
		}
	}()

	telemetry.Info("server.start", map[string]any{"addr": addr, "env": cfg.Env})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		telemetry.Error("server.failed", map[string]any{"err": err})
		app.Close()
		telemetry.Sync()
		os.Exit(1)
	}
	telemetry.Info("server.stopped", nil)
}
