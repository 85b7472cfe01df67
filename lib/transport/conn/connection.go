package conn

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-i2p/crypto/rand"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/go-i2p/go-peerconn/lib/config"
	"github.com/go-i2p/go-peerconn/lib/crypto/types"
	"github.com/go-i2p/go-peerconn/lib/transport/handshake"
	"github.com/go-i2p/go-peerconn/lib/transport/kdf"
	"github.com/go-i2p/go-peerconn/lib/util/strand"
)

var log = logger.GetGoI2PLogger()

// Connection is an encrypted, ordered byte channel to one peer.
type Connection struct {
	// Underlying stream, owned exclusively by the connection.
	stream net.Conn

	// Execution context for all completions.
	strand    *strand.Strand
	ownStrand bool

	// Configuration
	cfg       *config.ConnConfig
	agreement types.KeyAgreement
	rand      io.Reader
	onReceive ReceiveHandler
	limiter   *rate.Limiter

	// Lifecycle management
	state     atomic.Int32
	ctx       context.Context
	cancel    context.CancelFunc
	causeMu   sync.Mutex
	cause     error
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	subs      subscribers

	// Strand-owned state
	exchange    *handshake.Exchange
	contexts    types.ContextPair
	contextsSet bool
	queue       outgoingQueue
	reader      readLoop
}

// New takes ownership of stream and starts the key exchange. It never
// blocks; a failed handshake is reported through OnDisconnected.
func New(stream net.Conn, opts ...Option) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		stream: stream,
		cfg:    config.DefaultConnConfig(),
		rand:   rand.Reader,
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.ownStrand = true
	for _, opt := range opts {
		opt(c)
	}
	if c.strand == nil {
		c.strand = strand.New(remoteString(stream))
		c.ownStrand = true
	}

	log.WithFields(logger.Fields{
		"at":     "conn.New",
		"remote": remoteString(stream),
		"curve":  c.cfg.Curve,
		"cipher": c.cfg.Cipher,
	}).Debug("connection_created")

	if !c.strand.Post(c.startHandshake) {
		c.fail(oops.Wrapf(ErrStrandStopped, "scheduling handshake"))
	}
	return c
}

// Send queues payload for transmission. The bytes are copied. Send never
// blocks and never fails directly; transmit errors, including a stopped
// strand, close the connection and surface through OnDisconnected. After
// Close it does nothing.
func (c *Connection) Send(payload []byte) {
	if len(payload) == 0 || c.State() == Closed {
		return
	}
	entry := append([]byte(nil), payload...)
	c.post(func() { c.enqueue(entry) })
}

// IsDisconnected reports whether the connection has closed.
func (c *Connection) IsDisconnected() bool {
	return c.State() == Closed
}

// OnDisconnected registers h to be called once when the connection closes.
// If it is already closed, h is called immediately and -1 is returned.
func (c *Connection) OnDisconnected(h DisconnectHandler) HandlerID {
	if h == nil {
		return -1
	}
	id, ok := c.subs.add(h)
	if !ok {
		callHandler(h, c.Err())
	}
	return id
}

// Unsubscribe removes a handler registered with OnDisconnected.
func (c *Connection) Unsubscribe(id HandlerID) {
	c.subs.remove(id)
}

// Close shuts the connection down, discarding unsent data. It is idempotent.
func (c *Connection) Close() error {
	c.fail(nil)
	return nil
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Err returns the failure that closed the connection, or nil while it is
// open or after a local Close.
func (c *Connection) Err() error {
	c.causeMu.Lock()
	defer c.causeMu.Unlock()
	return c.cause
}

// Ready is closed once the handshake succeeds or the connection closes.
func (c *Connection) Ready() <-chan struct{} { return c.ready }

// Done is closed after the connection has closed and its subscribers ran.
func (c *Connection) Done() <-chan struct{} { return c.done }

// PendingSends returns how many payloads are queued and not fully written.
func (c *Connection) PendingSends() int {
	return int(c.queue.length.Load())
}

func (c *Connection) LocalAddr() net.Addr { return c.stream.LocalAddr() }

func (c *Connection) RemoteAddr() net.Addr { return c.stream.RemoteAddr() }

// startHandshake runs on the strand.
func (c *Connection) startHandshake() {
	if c.State() != Handshaking {
		return
	}
	if err := c.cfg.Validate(); err != nil {
		c.fail(oops.Errorf("%w: %w", ErrHandshakeFailed, err))
		return
	}
	if c.agreement == nil {
		a, err := handshake.AgreementByName(c.cfg.Curve)
		if err != nil {
			c.fail(oops.Errorf("%w: %w", ErrHandshakeFailed, err))
			return
		}
		c.agreement = a
	}
	if c.cfg.SendRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.cfg.SendRate), c.cfg.SendBurst)
	}
	c.reader.buf = make([]byte, c.cfg.ReceiveBufferSize)

	ex, err := handshake.NewExchange(c.agreement, c.rand)
	if err != nil {
		c.fail(err)
		return
	}
	c.exchange = ex

	if c.cfg.HandshakeTimeout > 0 {
		if err := c.stream.SetDeadline(time.Now().Add(c.cfg.HandshakeTimeout)); err != nil {
			log.WithError(err).Debug("handshake_deadline_unsupported")
		}
	}

	log.WithFields(logger.Fields{
		"at":       "(*Connection).startHandshake",
		"remote":   remoteString(c.stream),
		"key_size": len(ex.LocalPublicKey()),
	}).Debug("key_exchange_started")

	c.writeAsync(ex.LocalPublicKey(), false, c.onPublicKeyWritten)
	c.readFullAsync(ex.PeerBuffer(), c.onPublicKeyRead)
}

func (c *Connection) onPublicKeyWritten(n int, err error) {
	if c.State() != Handshaking || c.exchange == nil {
		return
	}
	if err := c.exchange.OnWriteComplete(n, err); err != nil {
		c.fail(err)
		return
	}
	c.finishKeyExchange()
}

func (c *Connection) onPublicKeyRead(n int, err error) {
	if c.State() != Handshaking || c.exchange == nil {
		return
	}
	if err := c.exchange.OnReadComplete(n, err); err != nil {
		c.fail(err)
		return
	}
	c.finishKeyExchange()
}

// finishKeyExchange initializes the contexts once both halves of the
// exchange completed, then opens the channel.
func (c *Connection) finishKeyExchange() {
	if !c.exchange.Ready() {
		return
	}
	res, err := c.exchange.Finish(c.cfg.SymmetricSeeds)
	c.exchange = nil
	if err != nil {
		c.fail(err)
		return
	}
	defer res.Seeds.Zero()

	if c.contextsSet {
		c.fail(oops.Wrapf(ErrHandshakeFailed, "encryption contexts already initialized"))
		return
	}
	pair, err := kdf.NewContexts(c.cfg.Cipher, &res.Seeds)
	if err != nil {
		c.fail(oops.Errorf("%w: %w", ErrHandshakeFailed, err))
		return
	}
	c.contexts = pair
	c.contextsSet = true

	if c.cfg.HandshakeTimeout > 0 {
		_ = c.stream.SetDeadline(time.Time{})
	}
	if !c.state.CompareAndSwap(int32(Handshaking), int32(Ready)) {
		return
	}
	c.readyOnce.Do(func() { close(c.ready) })

	log.WithFields(logger.Fields{
		"at":      "(*Connection).finishKeyExchange",
		"remote":  remoteString(c.stream),
		"queued":  c.queue.length.Load(),
		"cipher":  c.cfg.Cipher,
		"curve":   c.agreement.Name(),
		"seeding": seedingName(c.cfg.SymmetricSeeds),
	}).Debug("connection_ready")

	c.startReadLoop()
	c.pump()
}

// fail closes the connection. Only the first call has any effect; it is
// safe from any goroutine and from inside completions and handlers.
func (c *Connection) fail(cause error) {
	for {
		s := c.state.Load()
		if State(s) == Closed {
			return
		}
		if c.state.CompareAndSwap(s, int32(Closed)) {
			break
		}
	}

	c.causeMu.Lock()
	c.cause = cause
	c.causeMu.Unlock()

	fields := logger.Fields{
		"at":     "(*Connection).fail",
		"remote": remoteString(c.stream),
	}
	if cause != nil {
		fields["reason"] = cause.Error()
		log.WithFields(fields).Warn("connection_failed")
	} else {
		log.WithFields(fields).Debug("connection_closed")
	}

	c.cancel()
	if err := c.stream.Close(); err != nil {
		log.WithError(err).Debug("stream_close_error")
	}
	c.readyOnce.Do(func() { close(c.ready) })

	// Strand-owned state is released on the strand. Posting fails only when
	// the strand already stopped, and then nothing else touches that state.
	c.strand.Post(c.release)
	if c.ownStrand {
		c.strand.Stop()
	}

	c.subs.fire(cause)
	close(c.done)
}

// release drops queued data and key material. Runs on the strand.
func (c *Connection) release() {
	if n := c.queue.discard(); n > 0 {
		log.WithFields(logger.Fields{
			"at":      "(*Connection).release",
			"remote":  remoteString(c.stream),
			"dropped": n,
		}).Debug("discarded_unsent_payloads")
	}
	if c.exchange != nil {
		c.exchange.Abort()
		c.exchange = nil
	}
	c.contexts = types.ContextPair{}
}

// post schedules a completion on the strand. A refused completion belongs
// to a connection that is already closing.
func (c *Connection) post(t strand.Task) {
	if !c.strand.Post(t) {
		c.fail(oops.Wrapf(ErrStrandStopped, "posting completion"))
	}
}

func remoteString(stream net.Conn) string {
	if stream == nil {
		return "<nil>"
	}
	if addr := stream.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "<unknown>"
}

func seedingName(symmetric bool) string {
	if symmetric {
		return "symmetric"
	}
	return "directional"
}
