package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type runtimeConfig struct {
	handler         http.Handler
	baseCtx         context.Context
	logger          *slog.Logger
	ready           func(net.Addr)
	address         string
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

func (cfg *runtimeConfig) normalize() {
	if cfg.address == "" {
		cfg.address = ":3000"
	}
	if cfg.shutdownTimeout <= 0 {
		cfg.shutdownTimeout = defaultShutdownTimeout
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.baseCtx == nil {
		cfg.baseCtx = context.Background()
	}
}

func newHTTPServer(cfg *runtimeConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.address,
		Handler:           cfg.handler,
		ReadTimeout:       defaultReadTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(cfg.logger.Handler(), slog.LevelError),
	}
}

// runServer serves until the base context is cancelled or SIGINT/SIGTERM
// arrives, then drains in-flight requests and runs the hooks in order.
func runServer(cfg runtimeConfig) error {
	cfg.normalize()
	srv := newHTTPServer(&cfg)

	ctx, stop := signal.NotifyContext(cfg.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A bad address must fail before the server is reported as up.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		cfg.logger.Info("server listening", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cfg.ready != nil {
		cfg.ready(ln.Addr())
	}

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	return shutdown(srv, &cfg)
}

func shutdown(srv *http.Server, cfg *runtimeConfig) error {
	cfg.logger.Info("shutting down", slog.Duration("timeout", cfg.shutdownTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	errs := []error{srv.Shutdown(ctx)}
	for _, hook := range cfg.shutdownHooks {
		if err := hook(ctx); err != nil {
			cfg.logger.Error("shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		cfg.logger.Error("shutdown finished with errors", slog.Any("error", err))
		return err
	}
	cfg.logger.Info("shutdown finished")
	return nil
}
