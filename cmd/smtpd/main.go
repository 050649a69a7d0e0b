package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mailspool/mailspool/internal/config"
	"github.com/mailspool/mailspool/internal/logging"
	"github.com/mailspool/mailspool/internal/metrics"
	"github.com/mailspool/mailspool/internal/server"
	"github.com/mailspool/mailspool/internal/smtp"
	"github.com/mailspool/mailspool/internal/store"
)

func main() {
	flags := config.ParseFlags()

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if flags.Listen != "" {
		cfg.SMTP.Listeners = []string{flags.Listen}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewPrometheusServer(cfg.Metrics.Address, cfg.Metrics.Path)
		collector = metrics.NewPrometheusCollector(metricsServer.Registry())
		go func() {
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	spool := store.NewSpool(cfg.Spool)

	srv := server.New(server.Config{
		Name:           "smtpd",
		Addresses:      cfg.SMTP.Listeners,
		CommandTimeout: cfg.Timeouts.CommandTimeout(),
		IdleTimeout:    cfg.Timeouts.IdleTimeout(),
		MaxConnections: cfg.Limits.MaxConnections,
		Logger:         logger,
	})
	srv.SetHandler(smtp.Handler(cfg.Hostname, spool, collector))

	logger.Info("starting smtpd",
		"hostname", cfg.Hostname,
		"listeners", cfg.SMTP.Listeners,
		"spool", cfg.Spool,
	)

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("SMTP server stopped")
}
