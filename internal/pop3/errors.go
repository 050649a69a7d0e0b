package pop3

import "errors"

// ErrInvalidCommand is returned by ParseCommand for an empty or
// unparseable command line.
var ErrInvalidCommand = errors.New("invalid command")
