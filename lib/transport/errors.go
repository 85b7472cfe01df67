package transport

import "errors"

var (
	// ErrConnectionPoolFull is logged when an accepted stream is dropped
	// because MaxConnections connections are live.
	ErrConnectionPoolFull = errors.New("connection pool full")
	// ErrListenerClosed is returned by Serve after Close.
	ErrListenerClosed = errors.New("listener closed")
)
