// Package server provides the shared TCP acceptance layer used by both
// the SMTP and POP3 daemons: listeners, buffered connections, and a
// connection limit shared across all listeners of one daemon.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config holds configuration for creating a new Server.
type Config struct {
	// Name identifies the daemon in logs (e.g. "smtpd", "pop3d").
	Name string

	// Addresses are the listen addresses; one Listener is started per address.
	Addresses []string

	CommandTimeout time.Duration
	IdleTimeout    time.Duration
	MaxConnections int

	Logger *slog.Logger
}

// Server coordinates multiple listeners sharing one handler and one
// connection limiter.
type Server struct {
	cfg     Config
	handler ConnectionHandler
	limiter *ConnectionLimiter

	mu        sync.Mutex
	listeners []*Listener
}

// New creates a new Server with the given configuration.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var limiter *ConnectionLimiter
	if cfg.MaxConnections > 0 {
		limiter = NewConnectionLimiter(cfg.MaxConnections)
	}

	return &Server{
		cfg:     cfg,
		limiter: limiter,
	}
}

// SetHandler sets the connection handler for all listeners.
// Must be called before Run.
func (s *Server) SetHandler(handler ConnectionHandler) {
	s.handler = handler
}

// Run starts all configured listeners and blocks until the context is
// cancelled. All listeners run in their own goroutines.
func (s *Server) Run(ctx context.Context) error {
	if s.handler == nil {
		return fmt.Errorf("%s: no connection handler configured", s.cfg.Name)
	}

	s.mu.Lock()
	for _, addr := range s.cfg.Addresses {
		s.listeners = append(s.listeners, NewListener(ListenerConfig{
			Address:        addr,
			CommandTimeout: s.cfg.CommandTimeout,
			IdleTimeout:    s.cfg.IdleTimeout,
			Logger:         s.cfg.Logger,
			Handler:        s.handler,
			Limiter:        s.limiter,
		}))
	}
	s.mu.Unlock()

	s.cfg.Logger.Info("starting server",
		slog.String("name", s.cfg.Name),
		slog.Int("listener_count", len(s.listeners)),
	)

	var wg sync.WaitGroup
	errChan := make(chan error, len(s.listeners))

	for _, l := range s.listeners {
		wg.Add(1)
		go func(listener *Listener) {
			defer wg.Done()
			if err := listener.Start(ctx); err != nil && err != context.Canceled {
				errChan <- fmt.Errorf("listener %s: %w", listener.Address(), err)
			}
		}(l)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// Wait for shutdown, or for every listener to fail.
	select {
	case <-ctx.Done():
		s.cfg.Logger.Info("server shutting down", slog.String("name", s.cfg.Name))
		<-done
	case <-done:
	}

	close(errChan)
	var firstErr error
	for err := range errChan {
		if firstErr == nil {
			firstErr = err
		}
		s.cfg.Logger.Error("listener error", slog.String("error", err.Error()))
	}

	s.cfg.Logger.Info("server stopped", slog.String("name", s.cfg.Name))

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// Shutdown closes all listeners without waiting for handlers to finish.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.listeners {
		_ = l.Close()
	}
}
