package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/go-peerconn/lib/config"
	"github.com/go-i2p/go-peerconn/lib/transport/conn"
	"github.com/go-i2p/go-peerconn/lib/util"
)

var log = logger.GetGoI2PLogger()

// DefaultMaxConnections applies when the listener config leaves the limit unset.
var DefaultMaxConnections = config.DefaultListenConfig().MaxConnections

// Handler receives decrypted data together with the connection it arrived on.
type Handler func(c *conn.Connection, data []byte)

// Listener accepts streams and wraps each in a Connection.
type Listener struct {
	ln      net.Listener
	handler Handler

	optsMu sync.RWMutex
	opts   []conn.Option

	// MaxConnections is the maximum number of live connections. 0 means
	// DefaultMaxConnections.
	MaxConnections int

	// OnAccept, if set, is called with every new connection before its
	// handshake completes.
	OnAccept func(c *conn.Connection)

	active    atomic.Int32
	conns     util.Closers
	closed    atomic.Bool
	closeOnce sync.Once
}

// Listen opens a TCP listener on cfg.Address.
func Listen(cfg *config.ListenConfig, handler Handler, opts ...conn.Option) (*Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, oops.Wrapf(err, "listen on %s", cfg.Address)
	}
	l := NewListener(ln, handler, opts...)
	l.MaxConnections = cfg.MaxConnections
	return l, nil
}

// NewListener wraps an existing net.Listener. The Listener takes ownership
// of ln. opts are applied to every accepted connection.
func NewListener(ln net.Listener, handler Handler, opts ...conn.Option) *Listener {
	log.WithFields(logger.Fields{
		"at":      "NewListener",
		"address": ln.Addr().String(),
	}).Debug("listener_created")
	return &Listener{
		ln:      ln,
		handler: handler,
		opts:    opts,
	}
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// ActiveConnections returns the number of live connections.
func (l *Listener) ActiveConnections() int {
	return int(l.active.Load())
}

// Serve accepts streams until ctx is cancelled or the listener is closed.
// It returns nil on cancellation and ErrListenerClosed after Close.
func (l *Listener) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	for {
		stream, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if l.closed.Load() || errors.Is(err, net.ErrClosed) {
				return ErrListenerClosed
			}
			log.WithFields(logger.Fields{
				"at":     "(*Listener).Serve",
				"reason": err.Error(),
			}).Error("accept_failed")
			return oops.Wrapf(err, "accept")
		}
		l.accept(stream)
	}
}

// accept applies the connection limit and wraps stream.
func (l *Listener) accept(stream net.Conn) {
	if err := l.checkConnectionLimit(); err != nil {
		log.WithFields(logger.Fields{
			"at":     "(*Listener).accept",
			"remote": stream.RemoteAddr().String(),
			"reason": err.Error(),
		}).Warn("stream_rejected")
		stream.Close()
		return
	}
	l.active.Add(1)

	l.optsMu.RLock()
	opts := l.opts
	l.optsMu.RUnlock()

	c := wrap(stream, l.handler, opts)
	id := l.conns.Register(c)
	c.OnDisconnected(func(error) {
		l.conns.Unregister(id)
		l.active.Add(-1)
	})

	log.WithFields(logger.Fields{
		"at":                 "(*Listener).accept",
		"remote":             stream.RemoteAddr().String(),
		"active_connections": l.active.Load(),
	}).Debug("stream_accepted")

	if l.OnAccept != nil {
		l.OnAccept(c)
	}
}

func (l *Listener) getMaxConnections() int {
	if l.MaxConnections <= 0 {
		return DefaultMaxConnections
	}
	return l.MaxConnections
}

func (l *Listener) checkConnectionLimit() error {
	max := l.getMaxConnections()
	current := int(l.active.Load())
	if current >= max {
		return oops.Wrapf(ErrConnectionPoolFull, "%d of %d connections live", current, max)
	}
	return nil
}

// SetOptions replaces the options applied to connections accepted from now
// on. Live connections keep their settings.
func (l *Listener) SetOptions(opts ...conn.Option) {
	l.optsMu.Lock()
	defer l.optsMu.Unlock()
	l.opts = opts
}

// Close stops accepting and closes every live connection. It is idempotent.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		err = l.ln.Close()
		l.conns.CloseAll()
		log.WithFields(logger.Fields{
			"at":      "(*Listener).Close",
			"address": l.ln.Addr().String(),
		}).Debug("listener_closed")
	})
	return err
}

// wrap constructs a Connection whose receive handler also sees the
// connection itself. The handler waits until New has returned.
func wrap(stream net.Conn, handler Handler, opts []conn.Option) *conn.Connection {
	if handler == nil {
		return conn.New(stream, opts...)
	}
	var c *conn.Connection
	assigned := make(chan struct{})
	all := make([]conn.Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, conn.WithReceiveHandler(func(data []byte) {
		<-assigned
		handler(c, data)
	}))
	c = conn.New(stream, all...)
	close(assigned)
	return c
}
