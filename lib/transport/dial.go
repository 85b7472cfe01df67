package transport

import (
	"context"
	"net"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/go-peerconn/lib/transport/conn"
)

// Dial connects to addr over TCP and wraps the stream in a Connection. The
// handshake continues in the background; wait on Ready to observe it.
func Dial(ctx context.Context, addr string, handler Handler, opts ...conn.Option) (*conn.Connection, error) {
	var d net.Dialer
	stream, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, oops.Wrapf(err, "dial %s", addr)
	}
	log.WithFields(logger.Fields{
		"at":     "Dial",
		"remote": stream.RemoteAddr().String(),
	}).Debug("stream_dialed")
	return wrap(stream, handler, opts), nil
}
