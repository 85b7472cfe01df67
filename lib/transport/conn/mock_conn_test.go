package conn

import (
	"bytes"
	"crypto/rand"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-i2p/go-peerconn/lib/crypto/secp256k1"
	"github.com/go-i2p/go-peerconn/lib/crypto/types"
	"github.com/go-i2p/go-peerconn/lib/transport/kdf"
)

// scriptedConn is a net.Conn that serves a fixed read script and records
// everything written to it.
type scriptedConn struct {
	mu      sync.Mutex
	in      *bytes.Reader
	eof     bool
	written bytes.Buffer
	writes  int

	// okWrites full writes succeed before onWrite takes over; -1 means all.
	okWrites int
	onWrite  func(c *scriptedConn, p []byte) (int, error)
	delay    func() time.Duration

	closed    chan struct{}
	closeOnce sync.Once
	closes    atomic.Int32
}

func newScriptedConn(script []byte, eof bool) *scriptedConn {
	return &scriptedConn{
		in:       bytes.NewReader(script),
		eof:      eof,
		okWrites: -1,
		closed:   make(chan struct{}),
	}
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	if c.in.Len() > 0 {
		n, err := c.in.Read(p)
		c.mu.Unlock()
		return n, err
	}
	eof := c.eof
	c.mu.Unlock()
	if eof {
		return 0, io.EOF
	}
	<-c.closed
	return 0, net.ErrClosed
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	if c.delay != nil {
		time.Sleep(c.delay())
	}
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
	}
	c.mu.Lock()
	c.writes++
	useHook := c.onWrite != nil && c.okWrites >= 0 && c.writes > c.okWrites
	c.mu.Unlock()
	if useHook {
		return c.onWrite(c, p)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *scriptedConn) Close() error {
	c.closes.Add(1)
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *scriptedConn) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.written.Bytes()...)
}

func (c *scriptedConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func (c *scriptedConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40001}
}

func (c *scriptedConn) SetDeadline(time.Time) error      { return nil }
func (c *scriptedConn) SetReadDeadline(time.Time) error  { return nil }
func (c *scriptedConn) SetWriteDeadline(time.Time) error { return nil }

// blockWrite parks a write until the connection is closed.
func blockWrite(c *scriptedConn, p []byte) (int, error) {
	<-c.closed
	return 0, net.ErrClosed
}

// fakePeer is the remote side of a scriptedConn: a real ephemeral key whose
// public half is placed at the front of the read script.
type fakePeer struct {
	key types.EphemeralKey
	pub []byte
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()
	key, err := secp256k1.Agreement{}.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)
	return &fakePeer{key: key, pub: key.Public().Bytes()}
}

// contexts derives the peer's view of the encryption contexts from the
// public key the connection wrote first.
func (p *fakePeer) contexts(t *testing.T, localPub []byte) types.ContextPair {
	t.Helper()
	pub, err := secp256k1.Agreement{}.ParsePublicKey(localPub)
	require.NoError(t, err)
	secret, err := p.key.SharedSecret(pub)
	require.NoError(t, err)
	seeds, err := kdf.Derive(secret, p.pub, localPub, false)
	require.NoError(t, err)
	pair, err := kdf.NewContexts("aes-256-ctr", &seeds)
	require.NoError(t, err)
	return pair
}

// decryptWire splits what the connection wrote into its public key and the
// decrypted payload stream.
func (p *fakePeer) decryptWire(t *testing.T, wire []byte) (pub, plain []byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(wire), secp256k1.PublicKeySize)
	pub = wire[:secp256k1.PublicKeySize]
	pair := p.contexts(t, pub)
	plain = make([]byte, len(wire)-len(pub))
	pair.Receive.XORKeyStream(plain, wire[len(pub):])
	return pub, plain
}

// collector gathers received plaintext.
type collector struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *collector) handle(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Write(p)
}

func (c *collector) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf.Bytes()...)
}

func (c *collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}
