package conn

import (
	"io"
)

// completion receives the result of one asynchronous operation on the strand.
type completion func(n int, err error)

// writeAsync writes buf on its own goroutine and posts the result. When
// shaped is set the write is paced by the send limiter.
func (c *Connection) writeAsync(buf []byte, shaped bool, done completion) {
	go func() {
		var (
			n   int
			err error
		)
		if shaped && c.limiter != nil {
			n, err = c.shapedWrite(buf)
		} else {
			n, err = c.stream.Write(buf)
		}
		c.post(func() { done(n, err) })
	}()
}

// readFullAsync fills buf completely, or reports how far it got.
func (c *Connection) readFullAsync(buf []byte, done completion) {
	go func() {
		n, err := io.ReadFull(c.stream, buf)
		c.post(func() { done(n, err) })
	}()
}

// readAsync performs a single read of up to len(buf) bytes.
func (c *Connection) readAsync(buf []byte, done completion) {
	go func() {
		n, err := c.stream.Read(buf)
		c.post(func() { done(n, err) })
	}()
}

// shapedWrite writes buf in chunks no larger than the limiter burst,
// waiting for tokens before each one.
func (c *Connection) shapedWrite(buf []byte) (int, error) {
	burst := c.limiter.Burst()
	written := 0
	for written < len(buf) {
		chunk := len(buf) - written
		if burst > 0 && chunk > burst {
			chunk = burst
		}
		if err := c.limiter.WaitN(c.ctx, chunk); err != nil {
			return written, err
		}
		n, err := c.stream.Write(buf[written : written+chunk])
		written += n
		if err != nil {
			return written, err
		}
		if n < chunk {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
