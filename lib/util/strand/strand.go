// Package strand provides a serialized execution context: tasks posted to a
// Strand run one at a time, in posting order, on a single goroutine.
//
// A connection posts every I/O completion to its strand, so no two callbacks
// for the same connection ever run concurrently. Several connections may
// share one strand, or each may own its own and run in parallel.
package strand

import (
	"errors"
	"sync"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// ErrStopped is returned by Run when the strand no longer accepts tasks.
var ErrStopped = errors.New("strand stopped")

// Task is a unit of work run on the strand.
type Task func()

// Strand is an unbounded FIFO task queue drained by one goroutine.
type Strand struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []Task
	stopped bool
	done    chan struct{}
	name    string
}

// New starts a strand. The name only appears in log fields.
func New(name string) *Strand {
	s := &Strand{
		done: make(chan struct{}),
		name: name,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Post queues t. It never blocks and returns false if the strand is stopped,
// in which case t will not run.
func (s *Strand) Post(t Task) bool {
	if t == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.tasks = append(s.tasks, t)
	s.cond.Signal()
	return true
}

// Run posts t and waits for it to finish. It must not be called from the
// strand itself.
func (s *Strand) Run(t Task) error {
	finished := make(chan struct{})
	if !s.Post(func() {
		defer close(finished)
		t()
	}) {
		return ErrStopped
	}
	<-finished
	return nil
}

// Stop refuses new tasks. Tasks already queued still run; Done is closed
// after the last of them returns. Stop is idempotent and may be called from
// a task.
func (s *Strand) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.cond.Signal()
}

// Stopped reports whether Stop has been called.
func (s *Strand) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Done is closed when the drain goroutine exits.
func (s *Strand) Done() <-chan struct{} {
	return s.done
}

// Pending returns the number of queued tasks not yet started.
func (s *Strand) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Strand) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.tasks) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.tasks) == 0 {
			s.mu.Unlock()
			log.WithField("strand", s.name).Debug("strand_drained")
			return
		}
		t := s.tasks[0]
		s.tasks[0] = nil
		s.tasks = s.tasks[1:]
		s.mu.Unlock()

		s.exec(t)
	}
}

// exec runs one task. A panicking task is logged and does not take the
// strand down with it.
func (s *Strand) exec(t Task) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logger.Fields{
				"at":     "(*Strand).exec",
				"strand": s.name,
				"panic":  r,
			}).Error("task_panicked")
		}
	}()
	t()
}
