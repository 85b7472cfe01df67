// Package handshake implements the ephemeral key exchange that opens every
// connection.
//
// Wire format: each side writes its encoded public key with no header or
// length prefix, then reads exactly PublicKeySize bytes from the peer. No
// version or capability negotiation takes place. The shared secret seeds
// one encryption context per direction (see package kdf).
//
// Exchange is a step-driven state machine so the caller can run the write
// and the read as asynchronous operations and feed their completions back
// in. Perform runs the whole exchange synchronously.
package handshake

import (
	"context"
	"errors"
	"io"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/go-peerconn/lib/crypto/curve25519"
	"github.com/go-i2p/go-peerconn/lib/crypto/secp256k1"
	"github.com/go-i2p/go-peerconn/lib/crypto/types"
	"github.com/go-i2p/go-peerconn/lib/transport/kdf"
)

var log = logger.GetGoI2PLogger()

// ErrHandshakeFailed is the root of every key exchange failure.
var ErrHandshakeFailed = errors.New("handshake failed")

// AgreementByName returns the key agreement scheme for a configured curve name.
func AgreementByName(name string) (types.KeyAgreement, error) {
	switch name {
	case "secp256k1", "":
		return secp256k1.Agreement{}, nil
	case "x25519":
		return curve25519.Agreement{}, nil
	default:
		return nil, oops.Errorf("unknown curve %q", name)
	}
}

// Result is the outcome of a successful exchange.
type Result struct {
	Seeds          kdf.Seeds
	LocalPublicKey []byte
	PeerPublicKey  []byte
}

// Exchange tracks one key exchange. It is not safe for concurrent use; the
// owner serializes calls.
type Exchange struct {
	agreement types.KeyAgreement
	local     types.EphemeralKey
	localPub  []byte
	peerBuf   []byte
	wrote     bool
	received  bool
	finished  bool
}

// NewExchange generates a fresh ephemeral key pair for one exchange.
func NewExchange(a types.KeyAgreement, rand io.Reader) (*Exchange, error) {
	key, err := a.GenerateEphemeral(rand)
	if err != nil {
		return nil, oops.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	return &Exchange{
		agreement: a,
		local:     key,
		localPub:  key.Public().Bytes(),
		peerBuf:   make([]byte, a.PublicKeySize()),
	}, nil
}

// Agreement returns the scheme in use.
func (e *Exchange) Agreement() types.KeyAgreement { return e.agreement }

// LocalPublicKey returns the bytes to write to the peer.
func (e *Exchange) LocalPublicKey() []byte { return e.localPub }

// PeerBuffer returns the dedicated buffer the peer key must be read into.
// It has exactly PublicKeySize bytes.
func (e *Exchange) PeerBuffer() []byte { return e.peerBuf }

// OnWriteComplete records the result of writing the local public key.
func (e *Exchange) OnWriteComplete(n int, err error) error {
	if err != nil {
		return oops.Errorf("%w: writing local public key: %w", ErrHandshakeFailed, err)
	}
	if n != len(e.localPub) {
		return oops.Wrapf(ErrHandshakeFailed, "short write of local public key: %d of %d bytes", n, len(e.localPub))
	}
	e.wrote = true
	return nil
}

// OnReadComplete records the result of reading the peer public key.
func (e *Exchange) OnReadComplete(n int, err error) error {
	if n != len(e.peerBuf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return oops.Errorf("%w: read %d of %d peer key bytes: %w", ErrHandshakeFailed, n, len(e.peerBuf), err)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return oops.Errorf("%w: reading peer public key: %w", ErrHandshakeFailed, err)
	}
	e.received = true
	return nil
}

// Ready reports whether both the write and the read have completed.
func (e *Exchange) Ready() bool {
	return e.wrote && e.received && !e.finished
}

// Finish parses the peer key, computes the shared secret and derives the
// context seeds. The local private key is zeroed whether or not it succeeds,
// so Finish can only be called once.
func (e *Exchange) Finish(symmetric bool) (*Result, error) {
	if e.finished {
		return nil, oops.Wrapf(ErrHandshakeFailed, "exchange already finished")
	}
	if !e.wrote || !e.received {
		return nil, oops.Wrapf(ErrHandshakeFailed, "exchange finished before both keys were exchanged")
	}
	e.finished = true
	defer e.Abort()

	peer, err := e.agreement.ParsePublicKey(e.peerBuf)
	if err != nil {
		return nil, oops.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	secret, err := e.local.SharedSecret(peer)
	if err != nil {
		return nil, oops.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	defer wipe(secret)

	peerPub := append([]byte(nil), e.peerBuf...)
	seeds, err := kdf.Derive(secret, e.localPub, peerPub, symmetric)
	if err != nil {
		return nil, oops.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	log.WithFields(logger.Fields{
		"at":        "(*Exchange).Finish",
		"curve":     e.agreement.Name(),
		"symmetric": symmetric,
	}).Debug("key_exchange_finished")

	return &Result{
		Seeds:          seeds,
		LocalPublicKey: e.localPub,
		PeerPublicKey:  peerPub,
	}, nil
}

// Abort discards the private key. It is safe to call more than once.
func (e *Exchange) Abort() {
	if e.local != nil {
		e.local.Zero()
		e.local = nil
	}
}

// Perform runs a complete exchange over rw, writing and reading at the same
// time. Cancelling ctx does not interrupt blocked I/O by itself; close rw or
// set a deadline for that.
//
// On error the write of the local key may still be pending when Perform
// returns, for example on an unbuffered stream whose peer never reads. The
// caller owns rw and must close it after a failed exchange; closing it
// releases that write.
func Perform(ctx context.Context, rw io.ReadWriter, a types.KeyAgreement, rand io.Reader, symmetric bool) (*Result, error) {
	ex, err := NewExchange(a, rand)
	if err != nil {
		return nil, err
	}
	defer ex.Abort()

	writeErr := make(chan error, 1)
	go func() {
		n, err := rw.Write(ex.LocalPublicKey())
		writeErr <- ex.OnWriteComplete(n, err)
	}()

	n, rerr := io.ReadFull(rw, ex.PeerBuffer())
	if err := ex.OnReadComplete(n, rerr); err != nil {
		return nil, err
	}

	select {
	case err := <-writeErr:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, oops.Errorf("%w: %w", ErrHandshakeFailed, ctx.Err())
	}
	return ex.Finish(symmetric)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
