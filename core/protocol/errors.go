package protocol

import "errors"

// ErrSessionClosed is returned by writes on a session that is closing or closed.
var ErrSessionClosed = errors.New("protocol: session closed")
