package workerpool

import "errors"

var (
	// ErrTaskTimeout is returned by Task.Wait when the task does not finish in time
	ErrTaskTimeout = errors.New("task timed out")
	// ErrTaskPanic is returned when a task panics
	ErrTaskPanic = errors.New("task panicked")
	// ErrPoolStopped is returned for tasks submitted to or abandoned by a stopped pool
	ErrPoolStopped = errors.New("worker pool stopped")
)
