package conn

import (
	"errors"

	"github.com/go-i2p/go-peerconn/lib/transport/handshake"
)

var (
	// ErrHandshakeFailed wraps every key exchange failure.
	ErrHandshakeFailed = handshake.ErrHandshakeFailed
	// ErrTransmitFailed is reported when a queued payload could not be written in full.
	ErrTransmitFailed = errors.New("transmit failed")
	// ErrReceiveFailed is reported when the read loop hits an I/O error, including EOF.
	ErrReceiveFailed = errors.New("receive failed")
	// ErrSendQueueFull is reported when unsent data exceeds the configured limit.
	ErrSendQueueFull = errors.New("send queue full")
	// ErrStrandStopped is reported when the connection's strand refused work.
	ErrStrandStopped = errors.New("connection strand stopped")
	// ErrReceiveHandler is reported when the receive handler panicked.
	ErrReceiveHandler = errors.New("receive handler panicked")
)
