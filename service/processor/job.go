package processor

import (
	"context"
	"sync"
)

// Job represents a unit of work executed by a worker
type Job struct {
	ID   string
	Kind string
	// Run executes the job
	Run func(ctx context.Context) error
	// Late is called when the job finishes after its caller stopped waiting
	Late func(ctx context.Context, err error)

	ticket *ticket
}

// Wait blocks until the job completes or ctx is done. done is false when ctx
// expired first; the caller is then detached and the job's Late callback will
// run on completion.
type Wait func(ctx context.Context) (done bool, err error)

type ticket struct {
	completed chan struct{}
	mu        sync.Mutex
	err       error
	finished  bool
	detached  bool
}

func (t *ticket) wait(ctx context.Context) (bool, error) {
	select {
	case <-t.completed:
		return true, t.err
	case <-ctx.Done():
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return true, t.err
	}
	t.detached = true
	return false, nil
}

// complete records the job result and reports whether the caller detached
func (t *ticket) complete(err error) (detached bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	t.finished = true
	close(t.completed)
	return t.detached
}

func newTicket() *ticket {
	return &ticket{completed: make(chan struct{})}
}
