// Package signals dispatches process signals to registered handlers: SIGHUP
// reloads configuration, SIGINT and SIGTERM shut the process down.
package signals

import (
	"os"
	"os/signal"
	"sync"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// sigChan is buffered so a signal delivered while no receiver is ready is kept.
var sigChan = make(chan os.Signal, 1)

// Handler is called when a signal is received.
type Handler func()

// HandlerID identifies a registered handler for deregistration.
type HandlerID int

type entry struct {
	id HandlerID
	fn Handler
}

// registry is an ordered handler list.
type registry struct {
	name     string
	handlers []entry
}

var (
	mu         sync.Mutex
	nextID     HandlerID
	reload     = &registry{name: "reload"}
	interrupt  = &registry{name: "interrupt"}
	stopOnce   sync.Once
	handleOnce sync.Once
)

func (r *registry) add(f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	r.handlers = append(r.handlers, entry{id: id, fn: f})
	return id
}

func (r *registry) remove(id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	for i, h := range r.handlers {
		if h.id == id {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			return
		}
	}
}

// dispatch runs a snapshot of the handlers in registration order. A
// panicking handler is logged and the rest still run.
func (r *registry) dispatch() {
	mu.Lock()
	snapshot := append([]entry(nil), r.handlers...)
	mu.Unlock()

	log.WithFields(logger.Fields{
		"at":       "signals.dispatch",
		"signal":   r.name,
		"handlers": len(snapshot),
	}).Debug("signal_received")

	for _, h := range snapshot {
		func() {
			defer func() {
				if p := recover(); p != nil {
					log.WithFields(logger.Fields{
						"at":     "signals.dispatch",
						"signal": r.name,
						"panic":  p,
					}).Error("signal_handler_panicked")
				}
			}()
			h.fn()
		}()
	}
}

// RegisterReloadHandler registers f for SIGHUP. Nil handlers return -1.
func RegisterReloadHandler(f Handler) HandlerID { return reload.add(f) }

// DeregisterReloadHandler removes a reload handler.
func DeregisterReloadHandler(id HandlerID) { reload.remove(id) }

// RegisterInterruptHandler registers f for SIGINT and SIGTERM. Nil handlers
// return -1.
func RegisterInterruptHandler(f Handler) HandlerID { return interrupt.add(f) }

// DeregisterInterruptHandler removes an interrupt handler.
func DeregisterInterruptHandler(id HandlerID) { interrupt.remove(id) }

// Handle starts signal delivery and dispatches until StopHandle is called.
// It blocks; run it on its own goroutine.
func Handle() {
	handleOnce.Do(notify)
	for sig := range sigChan {
		route(sig)
	}
}

// StopHandle stops signal delivery and makes Handle return. Only the first
// call has an effect.
func StopHandle() {
	stopOnce.Do(func() {
		signal.Stop(sigChan)
		close(sigChan)
	})
}
