package conn

import (
	"sync/atomic"
)

// queueEntry is one payload awaiting transmission. plain is immutable; wire
// holds the ciphertext once the entry reaches the head and is being written.
type queueEntry struct {
	plain []byte
	wire  []byte
}

// outgoingQueue is the FIFO of unsent payloads. It is owned by the strand;
// only the counters are read from other goroutines.
type outgoingQueue struct {
	entries  []*queueEntry
	inFlight bool
	bytes    int
	length   atomic.Int64
}

func (q *outgoingQueue) push(payload []byte) {
	q.entries = append(q.entries, &queueEntry{plain: payload})
	q.bytes += len(payload)
	q.length.Add(1)
}

func (q *outgoingQueue) front() *queueEntry {
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

// pop removes the head. Callers only pop after its write fully completed.
func (q *outgoingQueue) pop() {
	if len(q.entries) == 0 {
		return
	}
	q.bytes -= len(q.entries[0].plain)
	q.entries[0] = nil
	q.entries = q.entries[1:]
	q.length.Add(-1)
}

func (q *outgoingQueue) empty() bool {
	return len(q.entries) == 0
}

// discard drops every entry, including one in flight.
func (q *outgoingQueue) discard() int {
	n := len(q.entries)
	q.entries = nil
	q.bytes = 0
	q.inFlight = false
	q.length.Store(0)
	return n
}
