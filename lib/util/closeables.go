package util

import (
	"io"
	"sync"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// Closers is a set of resources closed together on shutdown, such as a
// listener and the connections it produced. The zero value is ready to use.
type Closers struct {
	mu      sync.Mutex
	closers map[int]io.Closer
	nextID  int
	closed  bool
}

// Register adds c and returns an id for Unregister. Registering after
// CloseAll closes c immediately and returns -1.
func (s *Closers) Register(c io.Closer) int {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("Error closing late resource")
		}
		return -1
	}
	defer s.mu.Unlock()
	if s.closers == nil {
		s.closers = make(map[int]io.Closer)
	}
	id := s.nextID
	s.nextID++
	s.closers[id] = c
	log.WithField("count", len(s.closers)).Debug("Registered closer")
	return id
}

// Unregister forgets the closer with the given id without closing it.
func (s *Closers) Unregister(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.closers, id)
}

// Len returns the number of registered closers.
func (s *Closers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.closers)
}

// CloseAll closes every registered closer and refuses later registrations.
// Closers run outside the lock so they may call Unregister.
func (s *Closers) CloseAll() {
	s.mu.Lock()
	s.closed = true
	pending := s.closers
	s.closers = nil
	s.mu.Unlock()

	log.WithField("count", len(pending)).Debug("Closing all registered closers")
	for _, c := range pending {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("Error closing resource")
		}
	}
	log.Debug("All closers closed")
}
