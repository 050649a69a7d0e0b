package server

import (
	"bufio"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// Connection wraps a net.Conn with buffered I/O, deadline management,
// and a per-connection logger. Protocol handlers read commands through
// Reader and write replies through Writer followed by Flush.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	logger *slog.Logger

	commandTimeout time.Duration
	idleTimeout    time.Duration

	closed atomic.Bool
}

// NewConnection wraps conn for protocol handling.
// A zero timeout disables the corresponding deadline.
func NewConnection(conn net.Conn, logger *slog.Logger, commandTimeout, idleTimeout time.Duration) *Connection {
	return &Connection{
		conn:           conn,
		reader:         bufio.NewReader(conn),
		writer:         bufio.NewWriter(conn),
		logger:         logger,
		commandTimeout: commandTimeout,
		idleTimeout:    idleTimeout,
	}
}

// Reader returns the buffered reader for the connection.
func (c *Connection) Reader() *bufio.Reader {
	return c.reader
}

// Writer returns the buffered writer for the connection.
func (c *Connection) Writer() *bufio.Writer {
	return c.writer
}

// Flush writes any buffered output to the connection.
func (c *Connection) Flush() error {
	return c.writer.Flush()
}

// Logger returns the per-connection logger.
func (c *Connection) Logger() *slog.Logger {
	return c.logger
}

// RemoteAddr returns the remote network address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetCommandTimeout sets the read deadline for the next command.
// A zero command timeout clears the deadline.
func (c *Connection) SetCommandTimeout() error {
	if c.commandTimeout == 0 {
		return c.conn.SetDeadline(time.Time{})
	}
	return c.conn.SetDeadline(time.Now().Add(c.commandTimeout))
}

// ResetIdleTimeout extends the deadline after a successful read.
// A zero idle timeout clears the deadline.
func (c *Connection) ResetIdleTimeout() error {
	if c.idleTimeout == 0 {
		return c.conn.SetDeadline(time.Time{})
	}
	return c.conn.SetDeadline(time.Now().Add(c.idleTimeout))
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// IsClosed returns true once Close has been called.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}
