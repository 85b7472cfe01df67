package conn

import (
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// enqueue appends a payload to the outgoing queue. Runs on the strand.
func (c *Connection) enqueue(payload []byte) {
	if c.State() == Closed {
		return
	}
	c.queue.push(payload)
	if limit := c.cfg.MaxQueuedBytes; limit > 0 && c.queue.bytes > limit {
		c.fail(oops.Wrapf(ErrSendQueueFull, "%d bytes queued, limit %d", c.queue.bytes, limit))
		return
	}
	c.pump()
}

// pump starts writing the head of the queue if nothing is in flight. Payloads
// are encrypted at this point so the keystream advances in wire order.
func (c *Connection) pump() {
	if c.State() != Ready || c.queue.inFlight || c.queue.empty() || !c.contextsSet {
		return
	}
	head := c.queue.front()
	head.wire = make([]byte, len(head.plain))
	c.contexts.Send.XORKeyStream(head.wire, head.plain)
	c.queue.inFlight = true

	log.WithFields(logger.Fields{
		"at":     "(*Connection).pump",
		"remote": remoteString(c.stream),
		"bytes":  len(head.wire),
		"queued": c.queue.length.Load(),
	}).Debug("write_started")

	c.writeAsync(head.wire, true, c.onSendComplete)
}

// onSendComplete handles the result of writing the head entry.
func (c *Connection) onSendComplete(n int, err error) {
	if c.State() == Closed {
		return
	}
	head := c.queue.front()
	if head == nil {
		return
	}
	c.queue.inFlight = false
	if err != nil {
		c.fail(oops.Errorf("%w: %w", ErrTransmitFailed, err))
		return
	}
	if n != len(head.wire) {
		c.fail(oops.Wrapf(ErrTransmitFailed, "short write: %d of %d bytes", n, len(head.wire)))
		return
	}
	c.queue.pop()
	c.pump()
}
