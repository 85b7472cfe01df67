// Package kdf derives the per-direction encryption context seeds of a
// connection from its handshake shared secret.
package kdf

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

const (
	KeySize = sha256.Size
	IVSize  = 16
)

// Seed is the key and IV of one encryption context.
type Seed struct {
	Key [KeySize]byte
	IV  [IVSize]byte
}

// Zero clears the seed.
func (s *Seed) Zero() {
	s.Key = [KeySize]byte{}
	s.IV = [IVSize]byte{}
}

// Seeds holds one seed per direction.
type Seeds struct {
	Send    Seed
	Receive Seed
}

// Zero clears both seeds.
func (s *Seeds) Zero() {
	s.Send.Zero()
	s.Receive.Zero()
}

// Derive computes the send and receive seeds.
//
// When symmetric is false the material for each direction is the secret
// followed by the sender's and then the receiver's public key, so our send
// seed equals the peer's receive seed and the two directions never share a
// keystream. When symmetric is true both directions are seeded from the
// secret alone.
func Derive(secret, localPub, peerPub []byte, symmetric bool) (Seeds, error) {
	if len(secret) == 0 {
		return Seeds{}, oops.Errorf("kdf: empty shared secret")
	}
	if symmetric {
		log.WithFields(logger.Fields{
			"at":     "kdf.Derive",
			"reason": "symmetric seeds requested",
		}).Warn("both directions share one keystream")
		s := seedFrom(secret)
		return Seeds{Send: s, Receive: s}, nil
	}
	if len(localPub) == 0 || len(peerPub) == 0 {
		return Seeds{}, oops.Errorf("kdf: direction labels need both public keys")
	}
	send := material(secret, localPub, peerPub)
	recv := material(secret, peerPub, localPub)
	defer wipe(send)
	defer wipe(recv)
	return Seeds{Send: seedFrom(send), Receive: seedFrom(recv)}, nil
}

func material(secret, from, to []byte) []byte {
	m := make([]byte, 0, len(secret)+len(from)+len(to))
	m = append(m, secret...)
	m = append(m, from...)
	return append(m, to...)
}

func seedFrom(m []byte) Seed {
	return Seed{Key: sha256.Sum256(m), IV: Fingerprint128(m)}
}

// Fingerprint128 is a fast, non-cryptographic 128-bit digest built from two
// chained xxhash64 sums.
func Fingerprint128(data []byte) [IVSize]byte {
	var out [IVSize]byte
	lo := xxhash.Sum64(data)
	binary.BigEndian.PutUint64(out[:8], lo)

	d := xxhash.New()
	_, _ = d.Write(out[:8])
	_, _ = d.Write(data)
	binary.BigEndian.PutUint64(out[8:], d.Sum64())
	return out
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
