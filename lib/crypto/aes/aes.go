// Package aes provides AES-256-CTR encryption contexts for one direction of
// a connection.
package aes

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-i2p/go-peerconn/lib/crypto/types"
)

var log = logger.GetGoI2PLogger()

const (
	KeySize = 32
	IVSize  = aes.BlockSize
)

// Name is the configuration name of this cipher.
const Name = "aes-256-ctr"

// AESStreamKey is the seed of one AES-256-CTR context.
type AESStreamKey struct {
	Key []byte // must be 32 bytes
	IV  []byte // must be 16 bytes
}

// Len returns the length of the key
func (k *AESStreamKey) Len() int {
	return len(k.Key)
}

// NewContext creates the keystream. Encryption and decryption are the same
// operation in CTR mode, so one constructor serves both directions.
func (k *AESStreamKey) NewContext() (types.StreamCipher, error) {
	if len(k.Key) != KeySize {
		return nil, oops.Errorf("invalid AES key size: %d", len(k.Key))
	}
	if len(k.IV) != IVSize {
		return nil, oops.Errorf("invalid AES IV size: %d", len(k.IV))
	}
	block, err := aes.NewCipher(k.Key)
	if err != nil {
		log.WithError(err).Error("Failed to create AES cipher")
		return nil, err
	}
	log.Debug("Created AES-256-CTR context")
	return cipher.NewCTR(block, k.IV), nil
}
