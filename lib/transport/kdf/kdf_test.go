package kdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secret = bytes.Repeat([]byte{0xab}, 64)
	pubA   = bytes.Repeat([]byte{0x02}, 33)
	pubB   = bytes.Repeat([]byte{0x03}, 33)
)

func TestDerive_DirectionsMirror(t *testing.T) {
	a, err := Derive(secret, pubA, pubB, false)
	require.NoError(t, err)
	b, err := Derive(secret, pubB, pubA, false)
	require.NoError(t, err)

	assert.Equal(t, a.Send, b.Receive)
	assert.Equal(t, a.Receive, b.Send)
	assert.NotEqual(t, a.Send, a.Receive)
}

func TestDerive_Symmetric(t *testing.T) {
	s, err := Derive(secret, pubA, pubB, true)
	require.NoError(t, err)
	assert.Equal(t, s.Send, s.Receive)

	// Symmetric seeds are hash(secret) and the fingerprint of the secret.
	assert.Equal(t, Fingerprint128(secret), s.Send.IV)
}

func TestDerive_Errors(t *testing.T) {
	_, err := Derive(nil, pubA, pubB, false)
	assert.Error(t, err)

	_, err = Derive(secret, nil, pubB, false)
	assert.Error(t, err)
}

func TestFingerprint128(t *testing.T) {
	f1 := Fingerprint128([]byte("a"))
	f2 := Fingerprint128([]byte("b"))
	assert.NotEqual(t, f1, f2)
	assert.Equal(t, f1, Fingerprint128([]byte("a")))
	assert.NotEqual(t, f1[:8], f1[8:])
}

func TestNewContexts_RoundTrip(t *testing.T) {
	for _, name := range []string{"aes-256-ctr", "chacha20"} {
		t.Run(name, func(t *testing.T) {
			local, err := Derive(secret, pubA, pubB, false)
			require.NoError(t, err)
			remote, err := Derive(secret, pubB, pubA, false)
			require.NoError(t, err)

			lc, err := NewContexts(name, &local)
			require.NoError(t, err)
			rc, err := NewContexts(name, &remote)
			require.NoError(t, err)

			msg := []byte("hello over the wire")
			ct := make([]byte, len(msg))
			lc.Send.XORKeyStream(ct, msg)
			pt := make([]byte, len(ct))
			rc.Receive.XORKeyStream(pt, ct)
			assert.Equal(t, msg, pt)

			// The reverse direction uses a different keystream.
			ct2 := make([]byte, len(msg))
			rc.Send.XORKeyStream(ct2, msg)
			assert.NotEqual(t, ct, ct2)
		})
	}
}

func TestNewContexts_UnknownCipher(t *testing.T) {
	s, err := Derive(secret, pubA, pubB, false)
	require.NoError(t, err)
	_, err = NewContexts("rot13", &s)
	assert.Error(t, err)
}

func TestSeedsZero(t *testing.T) {
	s, err := Derive(secret, pubA, pubB, false)
	require.NoError(t, err)
	s.Zero()
	assert.Equal(t, Seeds{}, s)
}
