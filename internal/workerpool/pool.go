// Package workerpool runs cancellable units of work on a fixed set of goroutines
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSize is the number of workers used when a non-positive size is requested
const DefaultSize = 5

// Pool is a fixed-size worker pool. The zero value is not usable; create pools with New.
type Pool struct {
	size  int
	queue chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a pool with size workers. Workers do not run until Start is called.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}

	return &Pool{
		size:  size,
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Start launches the workers. Calling Start more than once has no effect.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for range p.size {
			p.wg.Add(1)

			go p.work()
		}

		log.Debug().Int("workers", p.size).Msg("worker pool started")
	})
}

// Stop signals the workers to exit and waits for running tasks to return.
// Tasks still queued are abandoned and their waiters time out.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()

		log.Debug().Msg("worker pool stopped")
	})
}

func (p *Pool) work() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case job := <-p.queue:
			job()
		}
	}
}

// stopped reports whether Stop has been called
func (p *Pool) stopped() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Task is the handle for a unit of work submitted to a Pool
type Task[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	value T
	err   error
}

// Submit enqueues fn on the pool. fn receives a context that is cancelled when
// ctx is cancelled, when the task is cancelled, or when Wait times out.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) *Task[T] {
	taskCtx, cancel := context.WithCancel(ctx)

	t := &Task[T]{
		ctx:    taskCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if p.stopped() {
		t.finish(*new(T), ErrPoolStopped)

		return t
	}

	job := func() {
		if err := taskCtx.Err(); err != nil {
			t.finish(*new(T), err)

			return
		}

		t.run(fn)
	}

	select {
	case p.queue <- job:
		return t
	default:
	}

	// queue full: hand off to a goroutine so Submit never blocks the caller
	go func() {
		select {
		case p.queue <- job:
		case <-taskCtx.Done():
			t.finish(*new(T), taskCtx.Err())
		case <-p.done:
			t.finish(*new(T), ErrPoolStopped)
		}
	}()

	return t
}

func (t *Task[T]) run(fn func(context.Context) (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("worker pool task panicked")

			t.finish(*new(T), fmt.Errorf("%w: %v", ErrTaskPanic, r))
		}
	}()

	value, err := fn(t.ctx)
	t.finish(value, err)
}

func (t *Task[T]) finish(value T, err error) {
	t.once.Do(func() {
		t.value = value
		t.err = err

		close(t.done)
	})
}

// Done returns a channel closed once the task has a result
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Cancel cancels the task context. A running task observes the cancellation
// through its context; a queued task finishes with the context error.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or timeout elapses, queue time included.
// On timeout the task context is cancelled and ErrTaskTimeout is returned; any
// later result is discarded. A non-positive timeout waits indefinitely.
func (t *Task[T]) Wait(timeout time.Duration) (T, error) {
	if timeout <= 0 {
		<-t.done
		t.cancel()

		return t.value, t.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		t.cancel()

		return t.value, t.err
	case <-timer.C:
		t.cancel()

		var zero T

		return zero, ErrTaskTimeout
	}
}
