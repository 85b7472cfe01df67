// Package transport accepts and dials TCP streams and wraps each one in an
// encrypted conn.Connection.
//
// # Listener
//
// A Listener owns a net.Listener. Serve accepts streams until the context is
// cancelled or Close is called, constructs one Connection per stream, and
// tracks it until it disconnects. Streams beyond MaxConnections are closed
// without a handshake.
//
//	l, err := transport.Listen(config.DefaultListenConfig(), echo)
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//	return l.Serve(ctx)
//
// # Dial
//
// Dial opens an outbound stream and wraps it the same way. Connection
// establishment policy (retries, peer selection) belongs to the caller.
//
// Subpackages:
//   - handshake: the ephemeral key exchange
//   - kdf: derivation of per-direction cipher seeds
//   - conn: the connection itself
package transport
