package kdf

import (
	"github.com/samber/oops"

	"github.com/go-i2p/go-peerconn/lib/crypto/aes"
	"github.com/go-i2p/go-peerconn/lib/crypto/chacha20"
	"github.com/go-i2p/go-peerconn/lib/crypto/types"
)

// NewContexts initializes the send and receive contexts for the named cipher
// ("aes-256-ctr" or "chacha20"). ChaCha20 uses the first 12 IV bytes as its
// nonce.
func NewContexts(cipherName string, seeds *Seeds) (types.ContextPair, error) {
	send, err := newContext(cipherName, &seeds.Send)
	if err != nil {
		return types.ContextPair{}, err
	}
	recv, err := newContext(cipherName, &seeds.Receive)
	if err != nil {
		return types.ContextPair{}, err
	}
	return types.ContextPair{Send: send, Receive: recv}, nil
}

func newContext(cipherName string, s *Seed) (types.StreamCipher, error) {
	switch cipherName {
	case aes.Name, "":
		k := aes.AESStreamKey{Key: s.Key[:], IV: s.IV[:]}
		return k.NewContext()
	case chacha20.Name:
		return chacha20.NewContext(s.Key[:], s.IV[:chacha20.NonceSize])
	default:
		return nil, oops.Errorf("kdf: unknown cipher %q", cipherName)
	}
}
