// Package future provides single-assignment result cells for submitted work.
//
// A Task pairs a Callable with its result cell. The cell moves
// Pending → Running → {Completed, Failed, Cancelled}, or directly
// Pending → Cancelled, and never leaves a terminal state. The first
// terminal transition is decided by compare-and-swap, so a task racing its
// own cancellation completes exactly once.
package future

import (
	"context"
	"time"
)

// Callable is a unit of work producing a value or an error.
// ctx is the cancellation token for the call.
type Callable[T any] func(ctx context.Context) (T, error)

// Future is the caller-visible handle for the eventual outcome of a task
type Future[T any] interface {
	// Get blocks until the outcome is known or ctx is done
	Get(ctx context.Context) (T, error)

	// GetWithTimeout blocks until the outcome is known or timeout elapses
	GetWithTimeout(timeout time.Duration) (T, error)

	// IsDone reports whether the outcome is terminal
	IsDone() bool

	// IsCancelled reports whether the task was cancelled
	IsCancelled() bool

	// Cancel attempts to cancel the task
	Cancel(mayInterruptIfRunning bool) bool

	// State returns the current state
	State() State

	// Done is closed once the outcome is terminal
	Done() <-chan struct{}
}

// State defines the state of a result cell
type State int32

const (
	// StatePending the task has not started
	StatePending State = iota
	// StateRunning a worker is executing the task
	StateRunning
	// StateCompleted the task returned a value
	StateCompleted
	// StateFailed the task returned an error or panicked
	StateFailed
	// StateCancelled the task was cancelled
	StateCancelled
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is a final state
func (s State) IsTerminal() bool {
	return s >= StateCompleted
}
