package pop3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mailspool/mailspool/internal/maildrop"
	"github.com/mailspool/mailspool/internal/metrics"
)

// statCommand implements the STAT command (RFC 1939).
// Returns the number of messages and total size in octets.
type statCommand struct{}

func (s *statCommand) Name() string {
	return "STAT"
}

func (s *statCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// STAT is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// STAT takes no arguments
	if len(args) > 0 {
		return Response{OK: false, Message: "STAT command takes no arguments"}, nil
	}

	count, octets := sess.Drop().Stat()

	return Response{OK: true, Message: fmt.Sprintf("%d %d", count, octets)}, nil
}

// listCommand implements the LIST command (RFC 1939).
// Without arguments, lists all messages. With argument, lists one message.
type listCommand struct{}

func (l *listCommand) Name() string {
	return "LIST"
}

func (l *listCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// LIST is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// LIST with no arguments - list all messages
	if len(args) == 0 {
		entries := sess.Drop().ListAll()
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = fmt.Sprintf("%d %d", e.Num, e.Size)
		}
		count, octets := sess.Drop().Stat()
		return Response{
			OK:      true,
			Message: fmt.Sprintf("%d messages (%d octets)", count, octets),
			Lines:   lines,
		}, nil
	}

	// LIST with one argument - list specific message
	if len(args) != 1 {
		return Response{OK: false, Message: "LIST command takes at most one argument"}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "Invalid message number"}, nil
	}

	entry, err := sess.Drop().ListOne(n)
	if err != nil {
		return errorResponse(err), nil
	}

	return Response{OK: true, Message: fmt.Sprintf("%d %d", entry.Num, entry.Size)}, nil
}

// retrCommand implements the RETR command (RFC 1939).
// Retrieves and sends the full message content.
type retrCommand struct {
	metrics metrics.Collector
}

func (r *retrCommand) Name() string {
	return "RETR"
}

func (r *retrCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// RETR is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// RETR requires exactly one argument
	if len(args) != 1 {
		return Response{OK: false, Message: "RETR command requires message number"}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "Invalid message number"}, nil
	}

	lines, size, err := sess.Drop().Retrieve(ctx, n)
	if err != nil {
		if isIndexError(err) {
			return errorResponse(err), nil
		}
		conn.Logger().Error("failed to retrieve message",
			"msgNum", n,
			"error", err.Error(),
		)
		return Response{OK: false, Message: "Failed to retrieve message"}, nil
	}

	r.metrics.MessageRetrieved(size)

	return Response{
		OK:      true,
		Message: fmt.Sprintf("%d octets", size),
		Lines:   lines,
	}, nil
}

// deleCommand implements the DELE command (RFC 1939).
// Marks a message for deletion.
type deleCommand struct {
	metrics metrics.Collector
}

func (d *deleCommand) Name() string {
	return "DELE"
}

func (d *deleCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// DELE is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// DELE requires exactly one argument
	if len(args) != 1 {
		return Response{OK: false, Message: "DELE command requires message number"}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "Invalid message number"}, nil
	}

	if err := sess.Drop().MarkDeleted(n); err != nil {
		return errorResponse(err), nil
	}

	d.metrics.MessageDeleted()

	return Response{OK: true, Message: fmt.Sprintf("message %d deleted", n)}, nil
}

// rsetCommand implements the RSET command (RFC 1939).
// Unmarks all messages marked for deletion.
type rsetCommand struct{}

func (r *rsetCommand) Name() string {
	return "RSET"
}

func (r *rsetCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// RSET is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// RSET takes no arguments
	if len(args) > 0 {
		return Response{OK: false, Message: "RSET command takes no arguments"}, nil
	}

	sess.Drop().Reset()
	count, _ := sess.Drop().Stat()

	return Response{OK: true, Message: fmt.Sprintf("maildrop has %d messages", count)}, nil
}

// noopCommand implements the NOOP command (RFC 1939).
// Does nothing, returns success.
type noopCommand struct{}

func (n *noopCommand) Name() string {
	return "NOOP"
}

func (n *noopCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// NOOP is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// NOOP takes no arguments
	if len(args) > 0 {
		return Response{OK: false, Message: "NOOP command takes no arguments"}, nil
	}

	return Response{OK: true, Message: ""}, nil
}

// uidlCommand implements the UIDL command (RFC 1939 extension).
// Returns unique identifiers for messages.
type uidlCommand struct{}

func (u *uidlCommand) Name() string {
	return "UIDL"
}

func (u *uidlCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// UIDL is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// UIDL with no arguments - list all messages
	if len(args) == 0 {
		entries := sess.Drop().ListAll()
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = fmt.Sprintf("%d %s", e.Num, e.UID)
		}
		return Response{
			OK:      true,
			Message: "",
			Lines:   lines,
		}, nil
	}

	// UIDL with one argument - get specific message UID
	if len(args) != 1 {
		return Response{OK: false, Message: "UIDL command takes at most one argument"}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "Invalid message number"}, nil
	}

	entry, err := sess.Drop().ListOne(n)
	if err != nil {
		return errorResponse(err), nil
	}

	return Response{OK: true, Message: fmt.Sprintf("%d %s", entry.Num, entry.UID)}, nil
}

// topCommand implements the TOP command (RFC 2449).
// Returns headers and n lines of the message body.
type topCommand struct{}

func (t *topCommand) Name() string {
	return "TOP"
}

func (t *topCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// TOP is only valid in TRANSACTION state
	if sess.State() != StateTransaction {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// TOP requires exactly two arguments: msgnum and line count
	if len(args) != 2 {
		return Response{OK: false, Message: "TOP command requires message number and line count"}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return Response{OK: false, Message: "Invalid message number"}, nil
	}

	lineCount, err := strconv.Atoi(args[1])
	if err != nil || lineCount < 0 {
		return Response{OK: false, Message: "Invalid line count"}, nil
	}

	lines, err := sess.Drop().Top(ctx, n, lineCount)
	if err != nil {
		if isIndexError(err) {
			return errorResponse(err), nil
		}
		conn.Logger().Error("failed to read message",
			"msgNum", n,
			"error", err.Error(),
		)
		return Response{OK: false, Message: "Failed to read message"}, nil
	}

	return Response{
		OK:      true,
		Message: "",
		Lines:   lines,
	}, nil
}

// isIndexError reports whether err is a maildrop bounds or deletion error,
// as opposed to an I/O failure.
func isIndexError(err error) bool {
	return errors.Is(err, maildrop.ErrNoSuchMessage) || errors.Is(err, maildrop.ErrMessageDeleted)
}

// errorResponse maps a maildrop error to its protocol reply.
func errorResponse(err error) Response {
	switch {
	case errors.Is(err, maildrop.ErrNoSuchMessage):
		return Response{OK: false, Message: "No such message"}
	case errors.Is(err, maildrop.ErrMessageDeleted):
		return Response{OK: false, Message: "Message already deleted"}
	default:
		return Response{OK: false, Message: "Operation failed"}
	}
}
