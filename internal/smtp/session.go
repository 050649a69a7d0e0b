// Package smtp implements the receiving side of the mail system: a
// per-connection SMTP state machine that accepts HELO, MAIL FROM, RCPT TO,
// DATA and QUIT, and persists each completed message to the spool.
package smtp

import (
	"bufio"
	"regexp"
	"strings"
)

// State identifies the position in the SMTP transaction cycle.
type State int

const (
	// StateInit is the state before HELO.
	StateInit State = iota

	// StateGreeted is the state after HELO, before MAIL FROM. A completed
	// DATA phase returns here for the next transaction.
	StateGreeted

	// StateSenderSet is the state after MAIL FROM.
	StateSenderSet

	// StateRecipientsSet is the state after at least one RCPT TO.
	StateRecipientsSet
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateGreeted:
		return "GREETED"
	case StateSenderSet:
		return "SENDER-SET"
	case StateRecipientsSet:
		return "RECIPIENTS-SET"
	default:
		return "UNKNOWN"
	}
}

// Action tells the connection handler what to do after a command reply.
type Action int

const (
	// ActionReply sends the reply and reads the next command.
	ActionReply Action = iota

	// ActionStartData sends the reply, then reads the DATA phase.
	ActionStartData

	// ActionQuit sends the reply and closes the connection.
	ActionQuit
)

var (
	mailFromPattern = regexp.MustCompile(`(?i)^MAIL FROM:\s*<([^>]+)>`)
	rcptToPattern   = regexp.MustCompile(`(?i)^RCPT TO:\s*<([^>]+)>`)
)

// Session is the per-connection SMTP transaction state. It is a pure
// state machine; all socket I/O happens in the connection handler.
// It is not safe for concurrent use.
type Session struct {
	hostname   string
	state      State
	identity   string
	sender     string
	recipients []string
}

// NewSession creates a session in the initial state.
func NewSession(hostname string) *Session {
	return &Session{hostname: hostname}
}

// State returns the current transaction state.
func (s *Session) State() State {
	return s.state
}

// Identity returns the client identity recorded by HELO.
func (s *Session) Identity() string {
	return s.identity
}

// Sender returns the address recorded by MAIL FROM.
func (s *Session) Sender() string {
	return s.sender
}

// Recipients returns the addresses recorded by RCPT TO, in order.
// Duplicates are kept.
func (s *Session) Recipients() []string {
	return s.recipients
}

// Command processes one command line and returns the protocol reply
// (without CRLF) plus the action the handler should take. A failed
// command never mutates transaction state.
func (s *Session) Command(line string) (string, Action) {
	upper := strings.ToUpper(line)

	switch {
	case strings.HasPrefix(upper, "HELO"):
		return s.helo(line), ActionReply

	case strings.HasPrefix(upper, "MAIL FROM:"):
		return s.mailFrom(line), ActionReply

	case strings.HasPrefix(upper, "RCPT TO:"):
		return s.rcptTo(line), ActionReply

	case upper == "DATA":
		if len(s.recipients) == 0 {
			return "503 Bad sequence of commands", ActionReply
		}
		return "354 End data with <CRLF>.<CRLF>", ActionStartData

	case upper == "QUIT":
		return "221 Bye", ActionQuit

	default:
		return "502 Command not implemented", ActionReply
	}
}

// helo always succeeds. An absent identity is tolerated and recorded
// as empty.
func (s *Session) helo(line string) string {
	parts := strings.SplitN(line, " ", 2)
	identity := ""
	if len(parts) > 1 {
		identity = strings.TrimSpace(parts[1])
	}

	s.identity = identity
	s.state = StateGreeted

	if identity == "" {
		return "250 " + s.hostname
	}
	return "250 " + s.hostname + " greets " + identity
}

// mailFrom begins a new transaction, discarding any prior sender and
// recipient state.
func (s *Session) mailFrom(line string) string {
	if s.state < StateGreeted {
		return "503 Bad sequence of commands"
	}

	match := mailFromPattern.FindStringSubmatch(line)
	if match == nil {
		return "501 Syntax error in parameters or arguments"
	}

	s.sender = match[1]
	s.recipients = nil
	s.state = StateSenderSet
	return "250 OK"
}

func (s *Session) rcptTo(line string) string {
	if s.state < StateSenderSet {
		return "503 Bad sequence of commands"
	}

	match := rcptToPattern.FindStringSubmatch(line)
	if match == nil {
		return "501 Syntax error in parameters or arguments"
	}

	s.recipients = append(s.recipients, match[1])
	s.state = StateRecipientsSet
	return "250 OK"
}

// FinishData resets the transaction after a persisted DATA phase,
// returning to the post-HELO baseline for the next transaction.
func (s *Session) FinishData() {
	s.sender = ""
	s.recipients = nil
	s.state = StateGreeted
}

// ReadData reads DATA-phase lines from r until the line containing a
// single dot, applying the transparency rule: a line beginning with two
// dots has one leading dot stripped, every other line is kept verbatim.
// End of input before the terminating dot is a truncated transfer.
func ReadData(r *bufio.Reader) ([]string, error) {
	lines := []string{}
	for {
		raw, err := r.ReadString('\n')
		if err != nil {
			return nil, ErrTruncatedData
		}

		line := strings.TrimRight(raw, "\r\n")
		if line == "." {
			return lines, nil
		}
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		}
		lines = append(lines, line)
	}
}
