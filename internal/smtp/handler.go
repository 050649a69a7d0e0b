package smtp

import (
	"context"
	"io"
	"strings"

	"github.com/mailspool/mailspool/internal/logging"
	"github.com/mailspool/mailspool/internal/metrics"
	"github.com/mailspool/mailspool/internal/server"
)

// Deliverer persists a completed message. Satisfied by store.Spool.
type Deliverer interface {
	Deliver(ctx context.Context, from string, recipients []string, body string) (string, error)
}

// Handler creates an SMTP protocol handler writing to the given spool.
func Handler(hostname string, spool Deliverer, collector metrics.Collector) server.ConnectionHandler {
	return func(ctx context.Context, conn *server.Connection) {
		handleConnection(ctx, conn, hostname, spool, collector)
	}
}

// handleConnection manages a single SMTP connection.
func handleConnection(ctx context.Context, conn *server.Connection, hostname string, spool Deliverer, collector metrics.Collector) {
	logger := logging.FromContext(ctx)

	collector.ConnectionOpened(metrics.ServiceSMTP)
	defer collector.ConnectionClosed(metrics.ServiceSMTP)

	sess := NewSession(hostname)

	logger.Info("starting SMTP session")

	if err := writeLine(conn, "220 "+hostname+" SMTP Server ready"); err != nil {
		logger.Error("failed to send greeting", "error", err.Error())
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

		raw, err := conn.Reader().ReadString('\n')
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

		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		logger.Debug("received command", "line", line)

		collector.CommandProcessed(metrics.ServiceSMTP, commandVerb(line))

		reply, action := sess.Command(line)

		if err := writeLine(conn, reply); err != nil {
			logger.Error("failed to send reply", "error", err.Error())
			return
		}

		switch action {
		case ActionStartData:
			if !readAndDeliver(ctx, conn, sess, spool, collector) {
				return
			}

		case ActionQuit:
			logger.Info("session ended by client")
			return
		}
	}
}

// readAndDeliver runs the DATA phase: reads body lines until the
// terminating dot, persists the message, and resets the transaction.
// Returns false if the connection must close.
func readAndDeliver(ctx context.Context, conn *server.Connection, sess *Session, spool Deliverer, collector metrics.Collector) bool {
	logger := logging.FromContext(ctx)

	lines, err := ReadData(conn.Reader())
	if err != nil {
		// Truncated transfer: nothing is saved.
		logger.Warn("data phase aborted", "error", err.Error())
		return false
	}

	body := strings.Join(lines, "\n")

	name, err := spool.Deliver(ctx, sess.Sender(), sess.Recipients(), body)
	if err != nil {
		logger.Error("failed to store message", "error", err.Error())
		if err := writeLine(conn, "451 Local error in processing"); err != nil {
			return false
		}
		return true
	}

	collector.MessageAccepted(int64(len(body)))

	logger.Info("message accepted",
		"name", name,
		"from", sess.Sender(),
		"recipients", len(sess.Recipients()),
	)

	sess.FinishData()

	if err := writeLine(conn, "250 OK: Message accepted for delivery"); err != nil {
		logger.Error("failed to send reply", "error", err.Error())
		return false
	}
	return true
}

// commandVerb extracts the first word of a command line for metrics labels.
func commandVerb(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSuffix(fields[0], ":"))
}

func writeLine(conn *server.Connection, line string) error {
	if _, err := conn.Writer().WriteString(line + "\r\n"); err != nil {
		return err
	}
	return conn.Flush()
}
