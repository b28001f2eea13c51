// Command mailrelay accepts order-confirmation requests over HTTP and relays
// them to the configured transactional email provider.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/mailrelay/internal/config"
	"github.com/dmitrymomot/mailrelay/internal/handlers"
	"github.com/dmitrymomot/mailrelay/internal/order"
	"github.com/dmitrymomot/mailrelay/internal/providers"
	"github.com/dmitrymomot/mailrelay/internal/server"
	"github.com/dmitrymomot/mailrelay/middlewares"
	"github.com/dmitrymomot/mailrelay/pkg/dnsverify"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mailrelay stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(logger.Config{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
	}, cfg.Sentry, middlewares.RequestIDExtractor()).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	log.Info("configuration loaded", "config", cfg)

	sender, err := providers.New(context.Background(), cfg, log)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gateway := mailer.NewGateway(sender,
		mailer.WithTimeout(cfg.ProviderTimeout),
		mailer.WithLogger(log),
		mailer.WithMetrics(mailer.NewMetrics(registry)),
	)

	renderer := order.NewRenderer(order.Branding{
		AppName:        cfg.AppName,
		AccentColor:    cfg.PrimaryColor,
		CurrencySymbol: cfg.CurrencySymbol,
	})
	if err := renderer.Check(context.Background()); err != nil {
		return err
	}

	healthOpts := []server.HealthOption{server.WithReadinessCheck("templates", renderer.Check)}
	if cfg.SenderDomainTXT != "" {
		healthOpts = append(healthOpts, server.WithReadinessCheck("sender_domain",
			dnsverify.SenderDomainCheck(cfg.SenderEmail, cfg.SenderDomainTXT)))
	}

	app := server.New(
		server.WithCustomLogger(log),
		server.WithMiddleware(
			middlewares.CORS(
				middlewares.WithAllowOrigins(cfg.AllowedOrigins...),
				middlewares.WithAllowOriginPatterns(cfg.OriginPatterns()...),
				middlewares.WithAllowMethods(http.MethodGet, http.MethodPost),
				middlewares.WithAllowHeaders("Content-Type", "Authorization"),
			),
			middlewares.RequestID(),
			middlewares.AccessLog(),
			middlewares.Timeout(cfg.RequestTimeout),
			middlewares.Recover(),
		),
		server.WithHandlers(
			handlers.NewStatusHandler(cfg.ServiceName),
			handlers.NewEmailHandler(gateway, renderer, handlers.EmailConfig{
				SenderEmail:    cfg.SenderEmail,
				SenderName:     cfg.SenderName,
				MismatchPolicy: order.MismatchPolicy(cfg.MismatchPolicy),
			}),
		),
		server.WithHealthChecks(healthOpts...),
		server.WithMount("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})),
		server.WithErrorHandler(handlers.HandleError),
		server.WithNotFoundHandler(handlers.NotFound),
		server.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
	)

	log.Info("starting server", "addr", cfg.Address(), "provider", gateway.Provider())

	return app.Run(cfg.Address(),
		server.Logger(log),
		server.ShutdownTimeout(cfg.ShutdownTimeout),
		server.ShutdownHook(logger.Flush(2*time.Second)),
	)
}
