package conn

import (
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// readLoop is the receive side state. It is owned by the strand.
type readLoop struct {
	buf     []byte
	started bool
	reads   uint64
}

// startReadLoop issues the first read. Later calls do nothing.
func (c *Connection) startReadLoop() {
	if c.reader.started {
		return
	}
	c.reader.started = true
	c.readNext()
}

func (c *Connection) readNext() {
	if c.State() != Ready {
		return
	}
	c.readAsync(c.reader.buf, c.onRead)
}

// onRead decrypts what arrived in place, delivers it and re-arms the read.
// Any read error, end of stream included, closes the connection.
func (c *Connection) onRead(n int, err error) {
	if c.State() == Closed || !c.contextsSet {
		return
	}
	if n > 0 {
		data := c.reader.buf[:n]
		c.contexts.Receive.XORKeyStream(data, data)
		c.reader.reads++
		if herr := c.deliver(data); herr != nil {
			c.fail(herr)
			return
		}
		if c.State() == Closed {
			return
		}
	}
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":     "(*Connection).onRead",
			"remote": remoteString(c.stream),
			"reads":  c.reader.reads,
		}).Debug("read_failed")
		c.fail(oops.Errorf("%w: %w", ErrReceiveFailed, err))
		return
	}
	c.readNext()
}

// deliver hands plaintext to the receive handler. A panicking handler is
// reported as an error instead of unwinding the strand.
func (c *Connection) deliver(data []byte) (err error) {
	if c.onReceive == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = oops.Wrapf(ErrReceiveHandler, "%v", r)
		}
	}()
	c.onReceive(data)
	return nil
}
