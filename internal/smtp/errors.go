package smtp

import "errors"

// ErrTruncatedData is returned when the peer disconnects during the DATA
// phase before sending the terminating dot. The partial message is
// discarded, never persisted.
var ErrTruncatedData = errors.New("connection closed before end of data")
