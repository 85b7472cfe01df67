package types

// StreamCipher is a one-way encryption context. Calls must be made in stream
// order; the keystream position advances by len(src) on every call.
type StreamCipher interface {
	XORKeyStream(dst, src []byte)
}

// ContextPair holds the send and receive contexts of one connection.
type ContextPair struct {
	Send    StreamCipher
	Receive StreamCipher
}
