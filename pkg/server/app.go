package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"Omnitrade/internal/handler/stream"
	mid "Omnitrade/internal/middleware"
	"Omnitrade/internal/usecase"
	"Omnitrade/pkg/config"
	xhttp "Omnitrade/pkg/http"
	pkgkafka "Omnitrade/pkg/kafka"
	applogger "Omnitrade/pkg/logger"
)

// Closer is a named resource released on shutdown, in registration order.
type Closer struct {
	Name  string
	Close func() error
}

type Option func(*App)

// WithConsumer runs c with the given handlers.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.handlers = handlers
	}
}

// WithPublisher starts the buffered publisher's retry loop.
func WithPublisher(p *mid.BufferedPublisher) Option {
	return func(a *App) { a.publisher = p }
}

func WithClosers(cs ...Closer) Option {
	return func(a *App) { a.closers = append(a.closers, cs...) }
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	cycle      *usecase.GovernanceCycle
	hub        *stream.Hub
	handler    xhttp.Handler
	httpServer *xhttp.Server

	consumer  *pkgkafka.Consumer
	handlers  []pkgkafka.MessageHandler
	publisher *mid.BufferedPublisher
	closers   []Closer
}

func New(cfg *config.Config, l *applogger.Logger, cycle *usecase.GovernanceCycle, hub *stream.Hub, handler xhttp.Handler, opts ...Option) *App {
	a := &App{cfg: cfg, log: l.With("app"), cycle: cycle, hub: hub, handler: handler}
	for _, opt := range opts {
		opt(a)
	}
	a.httpServer = xhttp.NewServer(handler,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath(cfg)),
		xhttp.WithLogger(l),
	)
	return a
}

func metricsPath(cfg *config.Config) string {
	if !cfg.Metrics.Enabled {
		return ""
	}
	return cfg.Metrics.Path
}

// Server exposes the HTTP server, mainly for tests.
func (a *App) Server() *xhttp.Server { return a.httpServer }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done, then shuts
// down in reverse dependency order.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.publisher != nil {
		a.publisher.Start(runCtx)
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
			a.log.Info("kafka handler registered", applogger.String("topic", h.Topic()))
		}
		if err := a.consumer.Start(); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	cycleErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cycleErr <- a.cycle.Run(runCtx)
	}()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		wg.Wait()
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-cycleErr:
		a.log.Error("governance loop exited", applogger.Error(runErr))
	}

	cancel()
	wg.Wait()
	return errors.Join(runErr, a.shutdown())
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")
	var errs []error

	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
		cancel()
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
