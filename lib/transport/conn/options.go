package conn

import (
	"io"

	"github.com/go-i2p/go-peerconn/lib/config"
	"github.com/go-i2p/go-peerconn/lib/crypto/types"
	"github.com/go-i2p/go-peerconn/lib/util/strand"
)

// ReceiveHandler consumes decrypted bytes from the read loop. The slice is
// reused for the next read and is only valid for the duration of the call.
type ReceiveHandler func(data []byte)

// Option configures a Connection at construction.
type Option func(*Connection)

// WithConfig sets the connection settings. The config is copied.
func WithConfig(cfg *config.ConnConfig) Option {
	return func(c *Connection) {
		if cfg != nil {
			cp := *cfg
			c.cfg = &cp
		}
	}
}

// WithStrand runs the connection's completions on s. The caller keeps
// ownership of s; the connection never stops it.
func WithStrand(s *strand.Strand) Option {
	return func(c *Connection) {
		if s != nil {
			c.strand = s
			c.ownStrand = false
		}
	}
}

// WithReceiveHandler sets the consumer of received plaintext.
func WithReceiveHandler(h ReceiveHandler) Option {
	return func(c *Connection) {
		c.onReceive = h
	}
}

// WithKeyAgreement overrides the curve named in the config.
func WithKeyAgreement(a types.KeyAgreement) Option {
	return func(c *Connection) {
		c.agreement = a
	}
}

// WithRand sets the entropy source for the ephemeral key.
func WithRand(r io.Reader) Option {
	return func(c *Connection) {
		if r != nil {
			c.rand = r
		}
	}
}
