package secp256k1

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-i2p/go-peerconn/lib/crypto/types"
)

func TestSharedSecretSymmetry(t *testing.T) {
	var a Agreement
	for i := 0; i < 16; i++ {
		alice, err := a.GenerateEphemeral(rand.Reader)
		require.NoError(t, err)
		bob, err := a.GenerateEphemeral(rand.Reader)
		require.NoError(t, err)

		alicePub, err := a.ParsePublicKey(alice.Public().Bytes())
		require.NoError(t, err)
		bobPub, err := a.ParsePublicKey(bob.Public().Bytes())
		require.NoError(t, err)

		s1, err := alice.SharedSecret(bobPub)
		require.NoError(t, err)
		s2, err := bob.SharedSecret(alicePub)
		require.NoError(t, err)

		assert.Len(t, s1, SharedSecretSize)
		assert.Equal(t, s1, s2)
	}
}

func TestPublicKeyIsCompressed(t *testing.T) {
	key, err := Agreement{}.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)

	b := key.Public().Bytes()
	assert.Len(t, b, 33)
	assert.Contains(t, []byte{0x02, 0x03}, b[0])
}

func TestParsePublicKey_WrongSize(t *testing.T) {
	for _, n := range []int{0, 1, 32, 34, 65} {
		_, err := Agreement{}.ParsePublicKey(make([]byte, n))
		assert.ErrorIs(t, err, types.ErrInvalidKeySize, "size %d", n)
	}
}

func TestParsePublicKey_Malformed(t *testing.T) {
	// Correct length, invalid prefix byte.
	bad := bytes.Repeat([]byte{0xff}, PublicKeySize)
	_, err := Agreement{}.ParsePublicKey(bad)
	assert.ErrorIs(t, err, types.ErrMalformedPublicKey)

	// Correct prefix, X not on the curve (p is larger than the field).
	bad[0] = 0x02
	_, err = Agreement{}.ParsePublicKey(bad)
	assert.ErrorIs(t, err, types.ErrMalformedPublicKey)
}

func TestZeroedKeyCannotAgree(t *testing.T) {
	var a Agreement
	k, err := a.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)
	peer, err := a.GenerateEphemeral(rand.Reader)
	require.NoError(t, err)

	k.Zero()
	k.Zero()
	_, err = k.SharedSecret(peer.Public())
	assert.Error(t, err)
}

func TestGenerateEphemeral_ShortEntropy(t *testing.T) {
	_, err := Agreement{}.GenerateEphemeral(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}
