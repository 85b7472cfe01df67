package curve25519

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-i2p/go-peerconn/lib/crypto/types"
)

func TestSharedSecretSymmetry(t *testing.T) {
	var a Agreement
	alice, err := a.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)
	bob, err := a.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)

	bobPub, err := a.ParsePublicKey(bob.Public().Bytes())
	require.NoError(t, err)
	alicePub, err := a.ParsePublicKey(alice.Public().Bytes())
	require.NoError(t, err)

	s1, err := alice.SharedSecret(bobPub)
	require.NoError(t, err)
	s2, err := bob.SharedSecret(alicePub)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
	assert.Len(t, s1, 64)
}

func TestParsePublicKey(t *testing.T) {
	var a Agreement
	assert.Equal(t, 32, a.PublicKeySize())

	_, err := a.ParsePublicKey(make([]byte, 31))
	assert.ErrorIs(t, err, types.ErrInvalidKeySize)

	_, err = a.ParsePublicKey(make([]byte, 32))
	assert.ErrorIs(t, err, types.ErrMalformedPublicKey)
}

func TestLowOrderPeerRejected(t *testing.T) {
	var a Agreement
	k, err := a.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)

	// u = 1 is a point of small order; the X25519 output is all zero.
	low := make([]byte, 32)
	low[0] = 1
	peer, err := a.ParsePublicKey(low)
	require.NoError(t, err)

	_, err = k.SharedSecret(peer)
	assert.Error(t, err)
}

func TestZero(t *testing.T) {
	k, err := Agreement{}.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)
	pub := k.Public()
	k.Zero()
	_, err = k.SharedSecret(pub)
	assert.Error(t, err)
}
