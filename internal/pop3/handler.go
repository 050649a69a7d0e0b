package pop3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mailspool/mailspool/internal/logging"
	"github.com/mailspool/mailspool/internal/maildrop"
	"github.com/mailspool/mailspool/internal/metrics"
	"github.com/mailspool/mailspool/internal/server"
	"github.com/mailspool/mailspool/internal/store"
)

// Handler creates a POP3 protocol handler with the given configuration.
func Handler(hostname string, auth *Authenticator, msgStore store.MessageStore, collector metrics.Collector) server.ConnectionHandler {
	commands := NewCommandSet(auth, collector)

	return func(ctx context.Context, conn *server.Connection) {
		handleConnection(ctx, conn, hostname, msgStore, commands, collector)
	}
}

// handleConnection manages a single POP3 connection.
func handleConnection(ctx context.Context, conn *server.Connection, hostname string, msgStore store.MessageStore, commands CommandSet, collector metrics.Collector) {
	logger := logging.FromContext(ctx)

	collector.ConnectionOpened(metrics.ServicePOP3)
	defer collector.ConnectionClosed(metrics.ServicePOP3)

	sess := NewSession(hostname, maildrop.New(msgStore))

	logger.Info("starting POP3 session", "state", sess.State().String())

	greeting := fmt.Sprintf("+OK %s POP3 server ready\r\n", hostname)
	if _, err := conn.Writer().WriteString(greeting); err != nil {
		logger.Error("failed to send greeting", "error", err.Error())
		return
	}
	if err := conn.Flush(); err != nil {
		logger.Error("failed to flush greeting", "error", err.Error())
		return
	}

	// Command loop
	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, closing connection")
			return
		default:
		}

		if conn.IsClosed() {
			logger.Info("connection closed")
			return
		}

		if err := conn.SetCommandTimeout(); err != nil {
			logger.Error("failed to set command timeout", "error", err.Error())
			return
		}

		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			if err == io.EOF {
				logger.Info("client closed connection")
				return
			}
			logger.Error("error reading command", "error", err.Error())
			return
		}

		if err := conn.ResetIdleTimeout(); err != nil {
			logger.Error("failed to reset idle timeout", "error", err.Error())
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		logger.Debug("received command", "line", line)

		cmdName, args, err := ParseCommand(line)
		if err != nil {
			sendError(conn, "Invalid command")
			continue
		}

		cmd, ok := commands.Get(cmdName)
		if !ok {
			sendError(conn, "Unknown command")
			continue
		}

		collector.CommandProcessed(metrics.ServicePOP3, cmdName)

		resp, err := cmd.Execute(ctx, sess, conn, args)
		if err != nil {
			logger.Error("command execution error",
				"command", cmdName,
				"error", err.Error(),
			)
			sendError(conn, "Internal server error")
			continue
		}

		if cmdName == "PASS" {
			collector.AuthAttempt(resp.OK)
		}

		// QUIT from TRANSACTION moved the session to UPDATE: commit
		// deletions before the closing reply goes out.
		if cmdName == "QUIT" && sess.State() == StateUpdate {
			if err := sess.Drop().Commit(ctx); err != nil {
				logger.Error("failed to commit deletions", "error", err.Error())
			}
		}

		if _, err := conn.Writer().WriteString(resp.String()); err != nil {
			logger.Error("failed to send response", "error", err.Error())
			return
		}
		if err := conn.Flush(); err != nil {
			logger.Error("failed to flush response", "error", err.Error())
			return
		}

		logger.Debug("sent response",
			"ok", resp.OK,
			"message", resp.Message,
		)

		if cmdName == "QUIT" && resp.OK {
			logger.Info("QUIT command received, closing connection")
			return
		}
	}
}

// sendError sends an error response to the client.
func sendError(conn *server.Connection, message string) {
	resp := Response{OK: false, Message: message}
	if _, err := conn.Writer().WriteString(resp.String()); err != nil {
		return
	}
	_ = conn.Flush()
}
