package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bitrise-steplib/steps-rhapsody-test/rhapsody"
)

// Scheduler errors ...
var (
	ErrSchedulerClosed = errors.New("scheduler is shut down")
	ErrSchedulerBusy   = errors.New("previous status check is still outstanding")
	ErrWaitTimeout     = errors.New("status check did not finish in time")
	ErrCancelled       = errors.New("status check cancelled")
)

// Task is a single status check.
type Task func(ctx context.Context) (rhapsody.Status, error)

// Scheduler runs at most one delayed Task at a time. A new Task can only be
// scheduled once the previous one resolved: it returned or was cancelled.
type Scheduler struct {
	mu      sync.Mutex
	closed  bool
	current *Future
}

// NewScheduler ...
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule runs task after delay.
func (s *Scheduler) Schedule(ctx context.Context, delay time.Duration, task Task) (*Future, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSchedulerClosed
	}
	if s.current != nil && !s.current.Resolved() {
		return nil, ErrSchedulerBusy
	}

	taskCtx, cancel := context.WithCancel(ctx)
	f := &Future{
		task:   task,
		ctx:    taskCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	f.timer = time.AfterFunc(delay, f.run)
	s.current = f

	return f, nil
}

// Shutdown cancels the outstanding Task, if any, and rejects new ones.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	f := s.current
	s.current = nil
	s.mu.Unlock()

	if f != nil {
		f.Cancel()
	}
}

// Future is the pending result of a scheduled Task.
type Future struct {
	task   Task
	ctx    context.Context
	cancel context.CancelFunc
	timer  *time.Timer

	once   sync.Once
	done   chan struct{}
	status rhapsody.Status
	err    error
}

func (f *Future) run() {
	status, err := f.task(f.ctx)
	f.resolve(status, err)
}

func (f *Future) resolve(status rhapsody.Status, err error) {
	f.once.Do(func() {
		f.status = status
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the Task resolved or timeout elapsed, whichever comes first.
func (f *Future) Wait(timeout time.Duration) (rhapsody.Status, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.status, f.err
	case <-timer.C:
		return rhapsody.Status{}, ErrWaitTimeout
	}
}

// Resolved ...
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Cancel stops a Task that has not started yet, or cancels the context of a
// running one and waits for it to return. Cancelling a resolved Future is a no-op.
func (f *Future) Cancel() {
	f.cancel()

	if f.timer.Stop() {
		f.resolve(rhapsody.Status{}, ErrCancelled)
		return
	}

	<-f.done
}
