// Package latch provides one-shot synchronization gates: a countdown latch
// and a single-winner result latch.
package latch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jzx17/goexecutor/pkg/types"
)

// CountDownLatch releases its waiters once it has been counted down to zero
type CountDownLatch struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
	clock types.Clock
}

// NewCountDownLatch creates a latch initialized to count. A latch created
// with zero is already open.
func NewCountDownLatch(count int, clock types.Clock) *CountDownLatch {
	if count < 0 {
		count = 0
	}
	l := &CountDownLatch{
		count: count,
		done:  make(chan struct{}),
		clock: types.ClockOrDefault(clock),
	}
	if count == 0 {
		close(l.done)
	}
	return l
}

// CountDown decrements the count by one. It reports whether this call
// brought the count to zero.
func (l *CountDownLatch) CountDown() bool {
	return l.CountDownBy(1)
}

// CountDownBy decrements the count by n, stopping at zero. It reports
// whether this call brought the count to zero.
func (l *CountDownLatch) CountDownBy(n int) bool {
	if n <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return false
	}
	l.count -= n
	if l.count <= 0 {
		l.count = 0
		close(l.done)
		return true
	}
	return false
}

// Count returns the current count
func (l *CountDownLatch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Done is closed when the count reaches zero
func (l *CountDownLatch) Done() <-chan struct{} {
	return l.done
}

// Await blocks until the count reaches zero or ctx is done
func (l *CountDownLatch) Await(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitTimeout blocks until the count reaches zero, timeout elapses or ctx
// is done. It reports whether the count reached zero.
func (l *CountDownLatch) AwaitTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	if timeout < 0 {
		return false, fmt.Errorf("%w: %v", types.ErrInvalidTimeout, timeout)
	}

	select {
	case <-l.done:
		return true, nil
	default:
	}

	timer := l.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.done:
		return true, nil
	case <-timer.C():
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
