// Package syncx provides synchronization primitives missing from sync
package syncx

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jzx17/goexecutor/pkg/types"
)

// Cond is a condition variable bound to a Locker whose waits can be
// abandoned on context cancellation or after a timeout.
//
// As with sync.Cond, L must be held when calling Wait, WaitTimeout, Signal
// and Broadcast, and waiters must re-check their predicate in a loop.
type Cond struct {
	L sync.Locker

	clock   types.Clock
	waiters *list.List // of chan struct{}, FIFO
}

// NewCond returns a Cond bound to l
func NewCond(l sync.Locker, clock types.Clock) *Cond {
	return &Cond{
		L:       l,
		clock:   types.ClockOrDefault(clock),
		waiters: list.New(),
	}
}

// Wait releases L, blocks until signalled or ctx is done, then re-acquires L.
func (c *Cond) Wait(ctx context.Context) error {
	return c.wait(ctx, nil)
}

// WaitTimeout is Wait bounded by d. A timeout is not an error: the caller
// recomputes the remaining time against its own deadline.
func (c *Cond) WaitTimeout(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := c.clock.NewTimer(d)
	defer timer.Stop()
	return c.wait(ctx, timer.C())
}

func (c *Cond) wait(ctx context.Context, timeout <-chan time.Time) error {
	ch := make(chan struct{})
	elem := c.waiters.PushBack(ch)
	c.L.Unlock()

	var err error
	select {
	case <-ch:
	case <-timeout:
	case <-ctx.Done():
		err = ctx.Err()
	}

	c.L.Lock()
	select {
	case <-ch:
		// signalled; if we are leaving on cancellation, pass the wakeup on
		if err != nil {
			c.Signal()
		}
	default:
		c.waiters.Remove(elem)
	}
	return err
}

// Signal wakes the longest waiting goroutine, if any
func (c *Cond) Signal() {
	if front := c.waiters.Front(); front != nil {
		c.waiters.Remove(front)
		close(front.Value.(chan struct{}))
	}
}

// Broadcast wakes all waiting goroutines
func (c *Cond) Broadcast() {
	for front := c.waiters.Front(); front != nil; front = c.waiters.Front() {
		c.waiters.Remove(front)
		close(front.Value.(chan struct{}))
	}
}

// Waiters returns the number of goroutines currently blocked
func (c *Cond) Waiters() int {
	return c.waiters.Len()
}
