// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrRejectedExecution indicates a submission after shutdown
	ErrRejectedExecution = errors.New("task rejected: executor is shut down")

	// ErrNilTask indicates a nil task was handed to a queue or pool
	ErrNilTask = errors.New("task is nil")

	// ErrInvalidTimeout indicates a negative timeout argument
	ErrInvalidTimeout = errors.New("timeout cannot be negative")

	// ErrTimeout indicates a blocking wait exceeded its deadline
	ErrTimeout = errors.New("operation timeout")

	// ErrCancelled indicates the task was cancelled before or while running
	ErrCancelled = errors.New("task was cancelled")

	// ErrExecutionFailed indicates the task returned an error or panicked
	ErrExecutionFailed = errors.New("task execution failed")

	// ErrNoTasks indicates an empty task collection where at least one is required
	ErrNoTasks = errors.New("no tasks given")

	// ErrQueueFull indicates a non-blocking insert found no free space
	ErrQueueFull = errors.New("no space is currently available")
)

// ExecutionError carries the failure captured from a task
type ExecutionError struct {
	// TaskID identifies the failed task, empty when not known
	TaskID string

	// Cause is the error returned by the task
	Cause error
}

// NewExecutionError creates a new ExecutionError
func NewExecutionError(taskID string, cause error) *ExecutionError {
	return &ExecutionError{TaskID: taskID, Cause: cause}
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%v: %v", ErrExecutionFailed, e.Cause)
	}
	return fmt.Sprintf("%v in %s: %v", ErrExecutionFailed, e.TaskID, e.Cause)
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports ErrExecutionFailed as well as anything the cause matches
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed
}

// PanicError represents a panic recovered while running a task
type PanicError struct {
	// Value is the value passed to panic
	Value interface{}

	// Stack is the goroutine stack at the point of recovery
	Stack string
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsRejected checks if an error is a rejected submission
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejectedExecution)
}

// IsTimeout checks if an error is a deadline expiry
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled checks if an error is a cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
