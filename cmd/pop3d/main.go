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
	"github.com/mailspool/mailspool/internal/pop3"
	"github.com/mailspool/mailspool/internal/server"
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
		cfg.POP3.Listeners = []string{flags.Listen}
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
	auth := pop3.NewAuthenticator(cfg.POP3.Auth)

	srv := server.New(server.Config{
		Name:           "pop3d",
		Addresses:      cfg.POP3.Listeners,
		CommandTimeout: cfg.Timeouts.CommandTimeout(),
		IdleTimeout:    cfg.Timeouts.IdleTimeout(),
		MaxConnections: cfg.Limits.MaxConnections,
		Logger:         logger,
	})
	srv.SetHandler(pop3.Handler(cfg.Hostname, auth, spool, collector))

	logger.Info("starting pop3d",
		"hostname", cfg.Hostname,
		"listeners", cfg.POP3.Listeners,
		"spool", cfg.Spool,
	)

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("POP3 server stopped")
}
