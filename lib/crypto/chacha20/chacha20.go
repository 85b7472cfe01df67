// Package chacha20 provides unauthenticated ChaCha20 encryption contexts for
// one direction of a connection.
package chacha20

import (
	"errors"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"golang.org/x/crypto/chacha20"

	"github.com/go-i2p/go-peerconn/lib/crypto/types"
)

var log = logger.GetGoI2PLogger()

// Key sizes
const (
	KeySize   = chacha20.KeySize
	NonceSize = chacha20.NonceSize
)

// Name is the configuration name of this cipher.
const Name = "chacha20"

// Error definitions
var (
	ErrInvalidKeySize   = errors.New("invalid ChaCha20 key size")
	ErrInvalidNonceSize = errors.New("invalid ChaCha20 nonce size")
)

// ChaCha20Key is a 256-bit key for ChaCha20
type ChaCha20Key [KeySize]byte

// ChaCha20Nonce is a 96-bit nonce for ChaCha20
type ChaCha20Nonce [NonceSize]byte

// NewContext creates a keystream from key and nonce.
func NewContext(key, nonce []byte) (types.StreamCipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, oops.Errorf("failed to create ChaCha20 cipher: %w", err)
	}
	log.Debug("Created ChaCha20 context")
	return c, nil
}

// NewContext creates a keystream for this key and the given nonce.
func (k *ChaCha20Key) NewContext(nonce ChaCha20Nonce) (types.StreamCipher, error) {
	return NewContext(k[:], nonce[:])
}
