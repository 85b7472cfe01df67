// Package secp256k1 implements ephemeral ECDH over secp256k1 with 33-byte
// compressed public keys.
package secp256k1

import (
	"crypto/sha512"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/go-peerconn/lib/crypto/types"
)

var log = logger.GetGoI2PLogger()

// PublicKeySize is the length of a compressed secp256k1 point.
const PublicKeySize = secp256k1.PubKeyBytesLenCompressed

// SharedSecretSize is the length of the derived secret (SHA-512 output).
const SharedSecretSize = sha512.Size

// Compile-time interface checks
var (
	_ types.KeyAgreement = Agreement{}
	_ types.EphemeralKey = (*EphemeralKey)(nil)
	_ types.PublicKey    = PublicKey{}
)

// Agreement is the secp256k1 key agreement scheme.
type Agreement struct{}

func (Agreement) Name() string { return "secp256k1" }

func (Agreement) PublicKeySize() int { return PublicKeySize }

// GenerateEphemeral creates a fresh key pair using entropy from rand.
func (Agreement) GenerateEphemeral(rand io.Reader) (types.EphemeralKey, error) {
	priv, err := secp256k1.GeneratePrivateKeyFromRand(rand)
	if err != nil {
		return nil, oops.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return &EphemeralKey{priv: priv}, nil
}

// ParsePublicKey decodes a 33-byte compressed point.
func (Agreement) ParsePublicKey(data []byte) (types.PublicKey, error) {
	if len(data) != PublicKeySize {
		return nil, oops.Wrapf(types.ErrInvalidKeySize, "secp256k1: got %d bytes, want %d", len(data), PublicKeySize)
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		log.WithFields(logger.Fields{
			"at":     "secp256k1.ParsePublicKey",
			"reason": err.Error(),
		}).Debug("rejected_public_key")
		return nil, oops.Errorf("%w: %w", types.ErrMalformedPublicKey, err)
	}
	return PublicKey{key: pub}, nil
}

// PublicKey is a parsed secp256k1 point.
type PublicKey struct {
	key *secp256k1.PublicKey
}

func (k PublicKey) Len() int { return PublicKeySize }

// Bytes returns the compressed encoding.
func (k PublicKey) Bytes() []byte {
	return k.key.SerializeCompressed()
}

// EphemeralKey is a single-use secp256k1 private key.
type EphemeralKey struct {
	priv *secp256k1.PrivateKey
}

func (k *EphemeralKey) Public() types.PublicKey {
	return PublicKey{key: k.priv.PubKey()}
}

// SharedSecret returns SHA-512 of the X coordinate of priv*peer.
func (k *EphemeralKey) SharedSecret(peer types.PublicKey) ([]byte, error) {
	if k.priv == nil {
		return nil, oops.Errorf("secp256k1: ephemeral key already zeroed")
	}
	p, ok := peer.(PublicKey)
	if !ok || p.key == nil {
		return nil, oops.Wrapf(types.ErrMalformedPublicKey, "secp256k1: unexpected peer key type %T", peer)
	}
	x := secp256k1.GenerateSharedSecret(k.priv, p.key)
	defer zero(x)
	sum := sha512.Sum512(x)
	return sum[:], nil
}

func (k *EphemeralKey) Zero() {
	if k.priv != nil {
		k.priv.Zero()
		k.priv = nil
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
