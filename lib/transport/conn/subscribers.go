package conn

import (
	"sync"
)

// DisconnectHandler is called once when the connection closes. cause is nil
// for a local Close.
type DisconnectHandler func(cause error)

// HandlerID identifies a registered DisconnectHandler.
type HandlerID int

type registeredHandler struct {
	id HandlerID
	fn DisconnectHandler
}

// subscribers is the disconnect observer list. Once fired it stays fired.
type subscribers struct {
	mu       sync.Mutex
	handlers []registeredHandler
	nextID   HandlerID
	fired    bool
}

// add registers fn. It returns false if the list already fired, in which
// case fn was not stored.
func (s *subscribers) add(fn DisconnectHandler) (HandlerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired {
		return -1, false
	}
	id := s.nextID
	s.nextID++
	s.handlers = append(s.handlers, registeredHandler{id: id, fn: fn})
	return id, true
}

func (s *subscribers) remove(id HandlerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// fire marks the list fired and calls every handler outside the lock, so
// handlers may call back into the connection.
func (s *subscribers) fire(cause error) {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	snapshot := s.handlers
	s.handlers = nil
	s.mu.Unlock()

	for _, h := range snapshot {
		callHandler(h.fn, cause)
	}
}

func callHandler(fn DisconnectHandler, cause error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("disconnect_handler_panicked")
		}
	}()
	fn(cause)
}
