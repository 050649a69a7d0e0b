package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mailspool/mailspool/internal/logging"
)

// ConnectionHandler processes a single accepted connection.
// The handler owns the connection for its lifetime; the listener closes
// it when the handler returns.
type ConnectionHandler func(ctx context.Context, conn *Connection)

// ListenerConfig holds configuration for creating a Listener.
type ListenerConfig struct {
	Address        string
	CommandTimeout time.Duration
	IdleTimeout    time.Duration
	Logger         *slog.Logger
	Handler        ConnectionHandler
	Limiter        *ConnectionLimiter
}

// Listener accepts connections on one address and dispatches each to the
// configured handler in its own goroutine.
type Listener struct {
	cfg ListenerConfig

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewListener creates a Listener from the given configuration.
func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{cfg: cfg}
}

// Address returns the configured listen address.
func (l *Listener) Address() string {
	return l.cfg.Address
}

// Addr returns the bound network address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Start begins accepting connections and blocks until the context is
// cancelled or the listener fails. In-flight handlers are awaited on return.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Address)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	l.cfg.Logger.Info("listener started", "address", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			l.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}

		if l.cfg.Limiter != nil && !l.cfg.Limiter.TryAcquire() {
			l.cfg.Logger.Warn("connection limit reached, rejecting",
				"remote", conn.RemoteAddr().String())
			_ = conn.Close()
			continue
		}

		l.wg.Add(1)
		go func(netConn net.Conn) {
			defer l.wg.Done()
			if l.cfg.Limiter != nil {
				defer l.cfg.Limiter.Release()
			}
			l.handle(ctx, netConn)
		}(conn)
	}
}

// Close stops the listener without waiting for handlers.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}

// handle wraps one accepted connection and runs the handler with a
// connection-scoped logger in the context.
func (l *Listener) handle(ctx context.Context, netConn net.Conn) {
	logger := l.cfg.Logger.With("remote", netConn.RemoteAddr().String())
	conn := NewConnection(netConn, logger, l.cfg.CommandTimeout, l.cfg.IdleTimeout)
	defer func() {
		_ = conn.Close()
	}()

	ctx = logging.WithContext(ctx, logger)
	l.cfg.Handler(ctx, conn)
}
