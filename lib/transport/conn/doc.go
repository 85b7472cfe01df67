// Package conn implements the per-peer encrypted connection.
//
// # Overview
//
// A Connection takes ownership of a raw net.Conn, runs the ephemeral key
// exchange from package handshake, seeds one stream cipher per direction
// and then offers an ordered, full-duplex encrypted byte channel:
//
//	c := conn.New(stream,
//	    conn.WithConfig(cfg),
//	    conn.WithReceiveHandler(func(b []byte) { /* plaintext, valid during the call */ }),
//	)
//	c.OnDisconnected(func(cause error) { /* fires once */ })
//	c.Send([]byte("hello"))
//
// # Lifecycle
//
// States move Handshaking -> Ready -> Closed, or Handshaking -> Closed.
// Closed is terminal. Every failure (handshake, transmit, receive, local
// Close) goes through one path that closes the stream, drops unsent data
// and notifies the disconnect subscribers exactly once.
//
// # Concurrency
//
// All completions for one connection run on its strand (package strand), one
// at a time. Blocking reads and writes run in short-lived goroutines that
// post a single completion back. Send, Close, IsDisconnected and the
// subscription methods are safe to call from any goroutine.
//
// # Ordering
//
// Payloads are written in Send order. Only one write is outstanding at a
// time and the head of the queue is removed only once the stream reports
// its full length written. Reads never overlap.
package conn
