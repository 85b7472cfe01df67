// Package curve25519 implements ephemeral X25519 key agreement with 32-byte
// public keys.
package curve25519

import (
	"crypto/sha512"
	"crypto/subtle"
	"io"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"go.step.sm/crypto/x25519"

	"github.com/go-i2p/go-peerconn/lib/crypto/types"
)

var log = logger.GetGoI2PLogger()

const PublicKeySize = x25519.PublicKeySize

// Compile-time interface checks
var (
	_ types.KeyAgreement = Agreement{}
	_ types.EphemeralKey = (*EphemeralKey)(nil)
	_ types.PublicKey    = Curve25519PublicKey(nil)
)

// Agreement is the X25519 key agreement scheme.
type Agreement struct{}

func (Agreement) Name() string { return "x25519" }

func (Agreement) PublicKeySize() int { return PublicKeySize }

// GenerateEphemeral creates a fresh X25519 key pair.
func (Agreement) GenerateEphemeral(rand io.Reader) (types.EphemeralKey, error) {
	log.Debug("Generating new Curve25519 ephemeral key")
	pub, priv, err := x25519.GenerateKey(rand)
	if err != nil {
		return nil, oops.Errorf("failed to generate Curve25519 key pair: %w", err)
	}
	return &EphemeralKey{pub: Curve25519PublicKey(pub), priv: priv}, nil
}

// ParsePublicKey accepts any 32-byte string except the all-zero point.
// Other low-order points are caught by SharedSecret.
func (Agreement) ParsePublicKey(data []byte) (types.PublicKey, error) {
	if len(data) != PublicKeySize {
		return nil, oops.Wrapf(types.ErrInvalidKeySize, "x25519: got %d bytes, want %d", len(data), PublicKeySize)
	}
	var zero [PublicKeySize]byte
	if subtle.ConstantTimeCompare(data, zero[:]) == 1 {
		return nil, oops.Wrapf(types.ErrMalformedPublicKey, "x25519: all-zero public key")
	}
	k := make(Curve25519PublicKey, PublicKeySize)
	copy(k, data)
	return k, nil
}

// Curve25519PublicKey is a raw X25519 public key.
type Curve25519PublicKey []byte

func (k Curve25519PublicKey) Len() int { return len(k) }

func (k Curve25519PublicKey) Bytes() []byte { return []byte(k) }

// EphemeralKey is a single-use X25519 private key.
type EphemeralKey struct {
	pub  Curve25519PublicKey
	priv x25519.PrivateKey
}

func (k *EphemeralKey) Public() types.PublicKey { return k.pub }

// SharedSecret returns SHA-512 of the X25519 output.
func (k *EphemeralKey) SharedSecret(peer types.PublicKey) ([]byte, error) {
	if k.priv == nil {
		return nil, oops.Errorf("x25519: ephemeral key already zeroed")
	}
	shared, err := k.priv.SharedKey(peer.Bytes())
	if err != nil {
		return nil, oops.Errorf("%w: %w", types.ErrMalformedPublicKey, err)
	}
	defer wipe(shared)
	var zero [32]byte
	if subtle.ConstantTimeCompare(shared, zero[:]) == 1 {
		return nil, oops.Wrapf(types.ErrInvalidSharedSecret, "x25519: low order peer key")
	}
	sum := sha512.Sum512(shared)
	return sum[:], nil
}

func (k *EphemeralKey) Zero() {
	wipe(k.priv)
	k.priv = nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
