package pop3

import (
	"github.com/mailspool/mailspool/internal/maildrop"
)

// State represents the current state in the POP3 state machine.
type State int

const (
	// StateAuthorization is the initial state where authentication is required.
	StateAuthorization State = iota

	// StateTransaction is the state after successful authentication.
	StateTransaction

	// StateUpdate is the state after QUIT from Transaction, while deletions
	// are being committed.
	StateUpdate
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateAuthorization:
		return "AUTHORIZATION"
	case StateTransaction:
		return "TRANSACTION"
	case StateUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Session represents a POP3 session with state tracking. Each connection
// owns one Session and one Maildrop snapshot.
type Session struct {
	state    State
	hostname string
	username string
	drop     *maildrop.Maildrop
}

// NewSession creates a new POP3 session over the given maildrop.
// The maildrop is not refreshed until authentication succeeds.
func NewSession(hostname string, drop *maildrop.Maildrop) *Session {
	return &Session{
		state:    StateAuthorization,
		hostname: hostname,
		drop:     drop,
	}
}

// State returns the current POP3 state.
func (s *Session) State() State {
	return s.state
}

// Hostname returns the server hostname used in greetings.
func (s *Session) Hostname() string {
	return s.hostname
}

// SetUsername stores the username from the USER command.
// Any name is recorded; validation happens at PASS.
func (s *Session) SetUsername(username string) {
	s.username = username
}

// Username returns the stored username.
func (s *Session) Username() string {
	return s.username
}

// SetAuthenticated transitions to StateTransaction after successful
// authentication.
func (s *Session) SetAuthenticated() {
	s.state = StateTransaction
}

// EnterUpdate transitions to StateUpdate (called when QUIT is received in
// Transaction).
func (s *Session) EnterUpdate() {
	if s.state == StateTransaction {
		s.state = StateUpdate
	}
}

// Drop returns the session's maildrop.
func (s *Session) Drop() *maildrop.Maildrop {
	return s.drop
}
