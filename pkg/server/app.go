package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"VolServe/pkg/config"
	xhttp "VolServe/pkg/http"
	applogger "VolServe/pkg/logger"
)

// Background is a component that runs alongside the HTTP server, such as the
// retrain scheduler.
type Background interface {
	Start()
	Stop(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	background []Background
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{cfg: cfg, log: log, httpServer: httpServer}
}

// AddBackground registers a component started after the HTTP server and
// stopped before it.
func (a *App) AddBackground(b Background) { a.background = append(a.background, b) }

// Run starts the application and blocks until ctx is cancelled, SIGINT or
// SIGTERM arrives, or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	for _, b := range a.background {
		b.Start()
	}
	a.log.Info("volserve started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("backend", a.cfg.Backend.Type),
		applogger.Int("port", a.cfg.Server.Port),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops background jobs first so no workflow starts against a
// closing store, then drains HTTP.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, b := range a.background {
		if err := b.Stop(ctx); err != nil {
			a.log.Warn("background stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.log.Info("shutdown complete")
	return nil
}
