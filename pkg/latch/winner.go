package latch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/goexecutor/pkg/types"
)

// Winner is a single-winner result slot. The first Offer stores its value
// and releases every waiter; later offers are discarded. Close releases
// waiters without a value when no winner can appear any more.
type Winner[T any] struct {
	slot    atomic.Pointer[T]
	release sync.Once
	done    chan struct{}
	clock   types.Clock

	onRelease func(hasValue bool)
}

// NewWinner creates an unset Winner. onRelease, if not nil, is called once
// by the goroutine that opens the latch, before any waiter is released.
func NewWinner[T any](clock types.Clock, onRelease func(hasValue bool)) *Winner[T] {
	return &Winner[T]{
		done:      make(chan struct{}),
		clock:     types.ClockOrDefault(clock),
		onRelease: onRelease,
	}
}

// Offer proposes v. It reports whether v became the result.
func (w *Winner[T]) Offer(v T) bool {
	if !w.slot.CompareAndSwap(nil, &v) {
		return false
	}
	w.open(true)
	return true
}

// Close releases the waiters without storing a value. A value stored
// earlier is kept.
func (w *Winner[T]) Close() {
	w.open(false)
}

func (w *Winner[T]) open(hasValue bool) {
	w.release.Do(func() {
		if w.onRelease != nil {
			w.onRelease(hasValue)
		}
		close(w.done)
	})
}

// Value returns the stored result, if any
func (w *Winner[T]) Value() (T, bool) {
	if p := w.slot.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// IsSet reports whether a value was stored
func (w *Winner[T]) IsSet() bool {
	return w.slot.Load() != nil
}

// Done is closed once the latch is released
func (w *Winner[T]) Done() <-chan struct{} {
	return w.done
}

// Await blocks until release or ctx is done, then returns the stored value
func (w *Winner[T]) Await(ctx context.Context) (T, bool, error) {
	select {
	case <-w.done:
		v, ok := w.Value()
		return v, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// AwaitTimeout blocks until release, timeout or ctx is done. On timeout
// the error is types.ErrTimeout.
func (w *Winner[T]) AwaitTimeout(ctx context.Context, timeout time.Duration) (T, bool, error) {
	var zero T
	if timeout < 0 {
		return zero, false, fmt.Errorf("%w: %v", types.ErrInvalidTimeout, timeout)
	}

	select {
	case <-w.done:
		v, ok := w.Value()
		return v, ok, nil
	default:
	}

	timer := w.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		v, ok := w.Value()
		return v, ok, nil
	case <-timer.C():
		return zero, false, types.ErrTimeout
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}
