// Package types defines core interfaces and types for the executor library
package types

import (
	"context"
	"time"
)

// Runnable is a unit of work a worker can run.
//
// The context is the cancellation token: it is cancelled when the task is
// cancelled with interruption or the executor is shut down immediately.
// The returned error is reported to the pool for statistics and error
// handling; it never stops the worker.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc adapts a function to Runnable
type RunnableFunc func(ctx context.Context) error

// Run calls f(ctx)
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Canceller is implemented by runnables that carry a cancellable result,
// such as future.Task
type Canceller interface {
	Cancel(mayInterruptIfRunning bool) bool
}

// ClockProvider provides access to clock for testing
type ClockProvider interface {
	GetClock() Clock
}

// ExecutorService defines submission and lifecycle of an executor
type ExecutorService interface {
	// Execute enqueues r for execution by a worker
	Execute(r Runnable) error

	// Shutdown stops accepting tasks and lets in-flight tasks finish
	Shutdown()

	// ShutdownNow stops accepting tasks, interrupts running tasks and
	// returns the tasks that never started
	ShutdownNow() []Runnable

	// IsShutdown reports whether shutdown has been requested
	IsShutdown() bool

	// IsTerminated reports whether every worker has exited
	IsTerminated() bool

	// AwaitTermination blocks until termination or timeout
	AwaitTermination(timeout time.Duration) (bool, error)
}

// PoolState defines the lifecycle state of a pool
type PoolState int32

const (
	// StateRunning accepts and runs tasks
	StateRunning PoolState = iota
	// StateShuttingDown rejects new tasks; workers are winding down
	StateShuttingDown
	// StateTerminated all workers have exited
	StateTerminated
)

// String returns the string representation of PoolState
func (ps PoolState) String() string {
	switch ps {
	case StateRunning:
		return "Running"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// WorkerPoolStats defines basic statistics for worker pools
type WorkerPoolStats struct {
	// PoolSize is the configured maximum number of workers
	PoolSize int

	// StartedWorkers is the number of workers started so far
	StartedWorkers int

	// ActiveWorkers is the number of workers running a task
	ActiveWorkers int

	// IdleWorkers is the number of workers waiting for a task
	IdleWorkers int

	// QueueSize is the current number of tasks in the queue
	QueueSize int

	// QueueCapacity is the capacity of the queue
	QueueCapacity int

	// TotalProcessed is the number of tasks that returned without error
	TotalProcessed int64

	// TotalFailed is the number of tasks that returned an error or panicked
	TotalFailed int64

	// State is the pool lifecycle state
	State PoolState
}

// ErrorHandler observes task failures captured by workers.
// Its return value is ignored by the pool.
type ErrorHandler func(error) error
