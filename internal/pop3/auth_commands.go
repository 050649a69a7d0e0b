package pop3

import (
	"context"
	"fmt"
)

// userCommand implements the USER command (RFC 1939).
// Any username is recorded; it is only checked when PASS arrives.
type userCommand struct{}

func (u *userCommand) Name() string {
	return "USER"
}

func (u *userCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// USER is only valid in AUTHORIZATION state
	if sess.State() != StateAuthorization {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// USER requires exactly one argument
	if len(args) != 1 {
		return Response{OK: false, Message: "USER command requires username argument"}, nil
	}

	sess.SetUsername(args[0])

	return Response{OK: true, Message: "User accepted, send PASS"}, nil
}

// passCommand implements the PASS command (RFC 1939).
// On a credential match it refreshes the maildrop, establishing the
// message numbering for the session, and enters TRANSACTION.
type passCommand struct {
	auth *Authenticator
}

func (p *passCommand) Name() string {
	return "PASS"
}

func (p *passCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// PASS is only valid in AUTHORIZATION state
	if sess.State() != StateAuthorization {
		return Response{OK: false, Message: "Command not valid in this state"}, nil
	}

	// USER must have been called first
	username := sess.Username()
	if username == "" {
		return Response{OK: false, Message: "Send USER first"}, nil
	}

	// PASS requires exactly one argument
	if len(args) != 1 {
		return Response{OK: false, Message: "PASS command requires password argument"}, nil
	}

	if !p.auth.Verify(username, args[0]) {
		conn.Logger().Info("authentication failed", "username", username)
		return Response{OK: false, Message: "Authentication failed"}, nil
	}

	if err := sess.Drop().Refresh(ctx); err != nil {
		conn.Logger().Error("maildrop refresh failed", "error", err.Error())
		return Response{OK: false, Message: "Maildrop unavailable"}, nil
	}

	sess.SetAuthenticated()
	count, octets := sess.Drop().Stat()

	conn.Logger().Info("authentication successful",
		"username", username,
		"messages", count,
	)

	return Response{OK: true, Message: fmt.Sprintf("maildrop has %d messages (%d octets)", count, octets)}, nil
}

// quitCommand implements the QUIT command (RFC 1939).
// From TRANSACTION it enters UPDATE; the handler commits deletions before
// sending the closing reply.
type quitCommand struct{}

func (q *quitCommand) Name() string {
	return "QUIT"
}

func (q *quitCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// QUIT takes no arguments
	if len(args) > 0 {
		return Response{OK: false, Message: "QUIT command takes no arguments"}, nil
	}

	if sess.State() == StateTransaction {
		sess.EnterUpdate()
	}

	return Response{OK: true, Message: "Bye"}, nil
}

// capaCommand implements the CAPA command (RFC 2449).
type capaCommand struct{}

func (c *capaCommand) Name() string {
	return "CAPA"
}

func (c *capaCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	// CAPA takes no arguments
	if len(args) > 0 {
		return Response{OK: false, Message: "CAPA command takes no arguments"}, nil
	}

	return Response{
		OK:      true,
		Message: "Capability list follows",
		Lines:   []string{"USER", "TOP", "UIDL", "RESP-CODES"},
	}, nil
}
