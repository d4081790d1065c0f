package future

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/goexecutor/pkg/types"
)

// taskIDCounter is the global task ID counter
var taskIDCounter int64

// Task is a Callable plus its result cell. It implements types.Runnable
// so a worker can run it, and Future so a caller can wait on it.
type Task[T any] struct {
	id    string
	fn    Callable[T]
	clock types.Clock

	state atomic.Int32
	done  chan struct{}

	// written once by the goroutine that wins the terminal transition,
	// read only after done is closed
	value T
	err   error

	mu        sync.Mutex
	interrupt context.CancelFunc

	onDone func(*Task[T])
}

// Option configures a Task
type Option[T any] func(*Task[T])

// WithClock sets the clock used by GetWithTimeout
func WithClock[T any](clock types.Clock) Option[T] {
	return func(t *Task[T]) {
		t.clock = types.ClockOrDefault(clock)
	}
}

// WithID sets a custom task ID
func WithID[T any](id string) Option[T] {
	return func(t *Task[T]) {
		t.id = id
	}
}

// WithCompletion registers fn to be called exactly once, by the goroutine
// that moved the task into a terminal state, after the outcome is visible.
func WithCompletion[T any](fn func(*Task[T])) Option[T] {
	return func(t *Task[T]) {
		t.onDone = fn
	}
}

// New creates a pending task for fn
func New[T any](fn Callable[T], opts ...Option[T]) *Task[T] {
	id := atomic.AddInt64(&taskIDCounter, 1)
	t := &Task[T]{
		id:    fmt.Sprintf("task-%d", id),
		fn:    fn,
		clock: types.NewRealClock(),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromRunnable creates a task that runs fn and yields result on success
func FromRunnable[T any](fn func(ctx context.Context) error, result T, opts ...Option[T]) *Task[T] {
	var call Callable[T]
	if fn != nil {
		call = func(ctx context.Context) (T, error) {
			if err := fn(ctx); err != nil {
				var zero T
				return zero, err
			}
			return result, nil
		}
	}
	return New(call, opts...)
}

// ID returns the task ID
func (t *Task[T]) ID() string {
	return t.id
}

// State returns the current state
func (t *Task[T]) State() State {
	return State(t.state.Load())
}

// IsDone reports whether the outcome can be read without blocking
func (t *Task[T]) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the task was cancelled
func (t *Task[T]) IsCancelled() bool {
	return t.State() == StateCancelled
}

// Done is closed once the outcome is terminal
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Run executes the task on the calling goroutine. It does nothing if the
// task already left the pending state. The returned error is the task's
// failure, if any; it is also captured in the cell.
func (t *Task[T]) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// interrupt is published under mu together with the transition, so a
	// Cancel that observes StateRunning also observes interrupt
	t.mu.Lock()
	if !t.state.CompareAndSwap(int32(StatePending), int32(StateRunning)) {
		t.mu.Unlock()
		return nil
	}
	t.interrupt = cancel
	t.mu.Unlock()

	value, err := t.call(runCtx)

	t.mu.Lock()
	t.interrupt = nil
	t.mu.Unlock()

	if err != nil {
		execErr := types.NewExecutionError(t.id, err)
		if t.finish(StateRunning, StateFailed, value, execErr) {
			return execErr
		}
		return nil
	}
	t.finish(StateRunning, StateCompleted, value, nil)
	return nil
}

// call invokes fn with panic recovery
func (t *Task[T]) call(ctx context.Context) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			err = &types.PanicError{Value: r, Stack: string(buf[:n])}
		}
	}()

	if t.fn == nil {
		return value, fmt.Errorf("task %s has no execution function", t.id)
	}
	return t.fn(ctx)
}

// Cancel attempts to cancel the task. A pending task will never run. A
// running task is marked cancelled at once and, if mayInterruptIfRunning,
// its context is cancelled; whether it actually stops depends on the task
// observing ctx. Returns false if the task is already terminal.
func (t *Task[T]) Cancel(mayInterruptIfRunning bool) bool {
	var zero T
	if t.finish(StatePending, StateCancelled, zero, types.ErrCancelled) {
		return true
	}
	if !t.finish(StateRunning, StateCancelled, zero, types.ErrCancelled) {
		return false
	}
	if mayInterruptIfRunning {
		t.mu.Lock()
		interrupt := t.interrupt
		t.mu.Unlock()
		if interrupt != nil {
			interrupt()
		}
	}
	return true
}

// finish performs the one terminal transition from → to
func (t *Task[T]) finish(from, to State, value T, err error) bool {
	if !t.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	t.value = value
	t.err = err
	close(t.done)
	if t.onDone != nil {
		t.onDone(t)
	}
	return true
}

// Get blocks until the outcome is known or ctx is done
func (t *Task[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// GetWithTimeout blocks until the outcome is known or timeout elapses
func (t *Task[T]) GetWithTimeout(timeout time.Duration) (T, error) {
	var zero T
	if timeout < 0 {
		return zero, fmt.Errorf("%w: %v", types.ErrInvalidTimeout, timeout)
	}

	select {
	case <-t.done:
		return t.value, t.err
	default:
	}

	timer := t.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.value, t.err
	case <-timer.C():
		return zero, types.ErrTimeout
	}
}

// TryGet returns the outcome without blocking; ok is false while not done
func (t *Task[T]) TryGet() (value T, ok bool, err error) {
	select {
	case <-t.done:
		return t.value, true, t.err
	default:
		return value, false, nil
	}
}
