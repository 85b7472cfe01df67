package types

import (
	"errors"
	"io"
)

var (
	// ErrMalformedPublicKey is returned when a peer public key has the expected
	// length but does not decode to a valid point on the curve.
	ErrMalformedPublicKey = errors.New("malformed public key")
	// ErrInvalidKeySize is returned when a public key has the wrong length.
	ErrInvalidKeySize = errors.New("invalid public key size")
	// ErrInvalidSharedSecret is returned when key agreement produced an unusable secret.
	ErrInvalidSharedSecret = errors.New("invalid shared secret")
)

// KeyAgreement is an elliptic-curve Diffie-Hellman scheme with a fixed-size
// public key encoding.
type KeyAgreement interface {
	// Name identifies the curve, e.g. "secp256k1".
	Name() string
	// PublicKeySize is the exact number of bytes of an encoded public key.
	PublicKeySize() int
	// GenerateEphemeral creates a fresh single-use key pair from rand.
	GenerateEphemeral(rand io.Reader) (EphemeralKey, error)
	// ParsePublicKey decodes and validates a peer public key.
	// A correctly sized key that is not a valid point yields ErrMalformedPublicKey.
	ParsePublicKey(data []byte) (PublicKey, error)
}

// PublicKey is an encoded public key.
type PublicKey interface {
	Len() int
	Bytes() []byte
}

// EphemeralKey is a private key that lives for one handshake.
type EphemeralKey interface {
	// Public returns the public half of the pair.
	Public() PublicKey
	// SharedSecret computes the agreed secret with the peer public key.
	SharedSecret(peer PublicKey) ([]byte, error)
	// Zero clears the private scalar. The key is unusable afterwards.
	Zero()
}
