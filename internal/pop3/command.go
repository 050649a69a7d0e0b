package pop3

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mailspool/mailspool/internal/metrics"
)

// ConnectionLogger is the interface for accessing the logger from commands.
type ConnectionLogger interface {
	Logger() *slog.Logger
}

// Command represents a POP3 command that can be executed.
type Command interface {
	// Name returns the command name (e.g., "USER", "PASS", "QUIT").
	Name() string

	// Execute processes the command and returns a response.
	// The response should not include the +OK or -ERR prefix.
	Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error)
}

// Response represents a POP3 response to a command.
type Response struct {
	// OK indicates success (+OK) or failure (-ERR).
	OK bool

	// Message is the response message (without +OK/-ERR prefix).
	Message string

	// Lines contains multi-line response data (for commands like LIST
	// and RETR). If present, it is sent after the status line with each
	// line byte-stuffed, terminated by a line containing a single dot.
	Lines []string
}

// String formats the response as a POP3 protocol string.
func (r Response) String() string {
	var sb strings.Builder

	if r.OK {
		sb.WriteString("+OK")
	} else {
		sb.WriteString("-ERR")
	}

	if r.Message != "" {
		sb.WriteString(" ")
		sb.WriteString(r.Message)
	}

	sb.WriteString("\r\n")

	if r.OK && r.Lines != nil {
		for _, line := range r.Lines {
			// Byte-stuff lines that start with "."
			if strings.HasPrefix(line, ".") {
				sb.WriteString(".")
			}
			sb.WriteString(line)
			sb.WriteString("\r\n")
		}
		sb.WriteString(".\r\n")
	}

	return sb.String()
}

// CommandSet maps upper-case command names to their implementations for
// one handler. Each Handler builds its own set; there is no global
// registry.
type CommandSet map[string]Command

// NewCommandSet builds the full command set for a connection handler.
func NewCommandSet(auth *Authenticator, collector metrics.Collector) CommandSet {
	set := make(CommandSet)
	for _, cmd := range []Command{
		&userCommand{},
		&passCommand{auth: auth},
		&quitCommand{},
		&capaCommand{},
		&statCommand{},
		&listCommand{},
		&retrCommand{metrics: collector},
		&deleCommand{metrics: collector},
		&rsetCommand{},
		&noopCommand{},
		&uidlCommand{},
		&topCommand{},
	} {
		set[strings.ToUpper(cmd.Name())] = cmd
	}
	return set
}

// Get retrieves a command by name, case-insensitively.
func (cs CommandSet) Get(name string) (Command, bool) {
	cmd, ok := cs[strings.ToUpper(name)]
	return cmd, ok
}

// ParseCommand parses a POP3 command line into command name and arguments.
// Returns the command name and arguments, or an error if the line is empty.
func ParseCommand(line string) (string, []string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, ErrInvalidCommand
	}

	parts := strings.Fields(line)
	cmdName := strings.ToUpper(parts[0])
	args := parts[1:]

	return cmdName, args, nil
}
