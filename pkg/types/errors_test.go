package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrRejectedExecution", ErrRejectedExecution},
		{"ErrNilTask", ErrNilTask},
		{"ErrInvalidTimeout", ErrInvalidTimeout},
		{"ErrTimeout", ErrTimeout},
		{"ErrCancelled", ErrCancelled},
		{"ErrExecutionFailed", ErrExecutionFailed},
		{"ErrNoTasks", ErrNoTasks},
		{"ErrQueueFull", ErrQueueFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("expected error, got nil")
			}
			if tt.err.Error() == "" {
				t.Errorf("expected non-empty error message")
			}
		})
	}
}

func TestExecutionError(t *testing.T) {
	t.Run("With Task ID", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewExecutionError("task-7", cause)

		expectedMsg := "task execution failed in task-7: disk full"
		if err.Error() != expectedMsg {
			t.Errorf("expected message %q, got %q", expectedMsg, err.Error())
		}
		if !errors.Is(err, ErrExecutionFailed) {
			t.Errorf("expected ExecutionError to match ErrExecutionFailed")
		}
		if !errors.Is(err, cause) {
			t.Errorf("expected ExecutionError to match its cause")
		}
		if errors.Is(err, ErrTimeout) {
			t.Errorf("expected ExecutionError not to match ErrTimeout")
		}
	})

	t.Run("Without Task ID", func(t *testing.T) {
		err := NewExecutionError("", errors.New("no winner"))

		expectedMsg := "task execution failed: no winner"
		if err.Error() != expectedMsg {
			t.Errorf("expected message %q, got %q", expectedMsg, err.Error())
		}
	})

	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("invoke: %w", NewExecutionError("task-1", ErrCancelled))

		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("expected errors.As to find the ExecutionError")
		}
		if execErr.TaskID != "task-1" {
			t.Errorf("expected task ID 'task-1', got %q", execErr.TaskID)
		}
		if !IsCancelled(err) {
			t.Errorf("expected IsCancelled to see through the wrapping")
		}
	})
}

func TestPanicError(t *testing.T) {
	t.Run("Non-error Value", func(t *testing.T) {
		err := &PanicError{Value: "boom", Stack: "stack"}
		if err.Error() != "panic: boom" {
			t.Errorf("expected message 'panic: boom', got %q", err.Error())
		}
		if err.Unwrap() != nil {
			t.Errorf("expected nil unwrap for a non-error value")
		}
	})

	t.Run("Error Value", func(t *testing.T) {
		cause := errors.New("nil map write")
		err := &PanicError{Value: cause}
		if !errors.Is(err, cause) {
			t.Errorf("expected PanicError to unwrap to its error value")
		}
	})
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		rejected  bool
		timeout   bool
		cancelled bool
	}{
		{"nil", nil, false, false, false},
		{"rejected", fmt.Errorf("%w: queue closed", ErrRejectedExecution), true, false, false},
		{"timeout", ErrTimeout, false, true, false},
		{"cancelled", ErrCancelled, false, false, true},
		{"unrelated", errors.New("other"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRejected(tt.err); got != tt.rejected {
				t.Errorf("IsRejected: expected %v, got %v", tt.rejected, got)
			}
			if got := IsTimeout(tt.err); got != tt.timeout {
				t.Errorf("IsTimeout: expected %v, got %v", tt.timeout, got)
			}
			if got := IsCancelled(tt.err); got != tt.cancelled {
				t.Errorf("IsCancelled: expected %v, got %v", tt.cancelled, got)
			}
		})
	}
}
