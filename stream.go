package rocblas

import (
	"sync"
)

// Stream represents an ordered sequence of operations that execute
// asynchronously with respect to the issuing goroutine. Operations within
// a stream execute in submission order; operations in different streams
// may execute concurrently.
//
// A fault inside a launched kernel does not surface at the launch call.
// It is recorded as the stream's deferred error and returned by the next
// Synchronize, which also clears it.
type Stream struct {
	id    int
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	errMu    sync.Mutex
	deferred error
}

func newStream(id int) *Stream {
	s := &Stream{
		id:    id,
		tasks: make(chan func(), 1000),
		done:  make(chan struct{}),
	}
	go s.worker()
	return s
}

// worker processes tasks for a stream.
func (s *Stream) worker() {
	for task := range s.tasks {
		task()
		s.wg.Done()
	}
	close(s.done)
}

// Submit adds a task to the stream.
func (s *Stream) Submit(task func()) {
	s.wg.Add(1)
	s.tasks <- task
}

// Synchronize waits for all tasks in the stream to complete. It returns
// the deferred error recorded since the previous Synchronize, if any,
// and resets it.
func (s *Stream) Synchronize() error {
	s.wg.Wait()

	s.errMu.Lock()
	defer s.errMu.Unlock()
	err := s.deferred
	s.deferred = nil
	return err
}

// setError records a deferred error. The first error wins; later ones
// are dropped until Synchronize clears the slot.
func (s *Stream) setError(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	if s.deferred == nil {
		s.deferred = err
	}
	s.errMu.Unlock()
}

// close shuts the stream down after draining submitted work.
func (s *Stream) close() {
	s.wg.Wait()
	close(s.tasks)
	<-s.done
}
