package queue

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jzx17/goexecutor/internal/syncx"
	"github.com/jzx17/goexecutor/pkg/types"
)

// ArrayBlockingQueue is a bounded BlockingQueue backed by a circular buffer.
// head is the index of the oldest element and tail the index of the next
// free slot; both wrap modulo the buffer length.
type ArrayBlockingQueue[T any] struct {
	items []T
	head  int
	tail  int
	size  int

	mu       sync.Mutex
	notEmpty *syncx.Cond
	notFull  *syncx.Cond
	clock    types.Clock
}

// NewArrayBlockingQueue creates a circular-buffer queue
func NewArrayBlockingQueue[T any](capacity int, clock types.Clock) (*ArrayBlockingQueue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("array queue capacity must be positive, got %d", capacity)
	}

	q := &ArrayBlockingQueue[T]{
		items: make([]T, capacity),
		clock: types.ClockOrDefault(clock),
	}
	q.notEmpty = syncx.NewCond(&q.mu, q.clock)
	q.notFull = syncx.NewCond(&q.mu, q.clock)
	return q, nil
}

// Add inserts v or fails with types.ErrQueueFull
func (q *ArrayBlockingQueue[T]) Add(v T) error {
	ok, err := q.Offer(v)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrQueueFull
	}
	return nil
}

// Offer inserts v if there is space, without blocking
func (q *ArrayBlockingQueue[T]) Offer(v T) (bool, error) {
	if isNil(v) {
		return false, types.ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.items) {
		return false, nil
	}
	q.enqueue(v)
	return true, nil
}

// Put inserts v, blocking while the queue is full
func (q *ArrayBlockingQueue[T]) Put(ctx context.Context, v T) error {
	if isNil(v) {
		return types.ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.items) {
		if err := q.notFull.Wait(ctx); err != nil {
			return err
		}
	}
	q.enqueue(v)
	return nil
}

// OfferTimeout inserts v, waiting up to timeout for space
func (q *ArrayBlockingQueue[T]) OfferTimeout(ctx context.Context, v T, timeout time.Duration) (bool, error) {
	if isNil(v) {
		return false, types.ErrNilTask
	}
	if err := checkTimeout(timeout); err != nil {
		return false, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	deadline := q.clock.Now().Add(timeout)
	for q.size == len(q.items) {
		remaining := deadline.Sub(q.clock.Now())
		if remaining <= 0 {
			return false, nil
		}
		if err := q.notFull.WaitTimeout(ctx, remaining); err != nil {
			return false, err
		}
	}
	q.enqueue(v)
	return true, nil
}

// Take removes the head, blocking while the queue is empty
func (q *ArrayBlockingQueue[T]) Take(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 {
		if err := q.notEmpty.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}
	return q.dequeue(), nil
}

// Poll removes the head if there is one, without blocking
func (q *ArrayBlockingQueue[T]) Poll() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.dequeue(), true
}

// PollTimeout removes the head, waiting up to timeout for one
func (q *ArrayBlockingQueue[T]) PollTimeout(ctx context.Context, timeout time.Duration) (T, bool, error) {
	var zero T
	if err := checkTimeout(timeout); err != nil {
		return zero, false, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	deadline := q.clock.Now().Add(timeout)
	for q.size == 0 {
		remaining := deadline.Sub(q.clock.Now())
		if remaining <= 0 {
			return zero, false, nil
		}
		if err := q.notEmpty.WaitTimeout(ctx, remaining); err != nil {
			return zero, false, err
		}
	}
	return q.dequeue(), true, nil
}

// Remove deletes the first element matching. Elements after it shift one
// slot towards the head so the occupied region stays contiguous, and the
// tail steps back one slot; head never moves.
func (q *ArrayBlockingQueue[T]) Remove(match func(T) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	for i := 0; i < q.size; i++ {
		if !match(q.items[(q.head+i)%n]) {
			continue
		}
		for j := i; j < q.size-1; j++ {
			q.items[(q.head+j)%n] = q.items[(q.head+j+1)%n]
		}
		q.tail = (q.tail - 1 + n) % n
		var zero T
		q.items[q.tail] = zero
		q.size--
		q.notFull.Signal()
		return true
	}
	return false
}

// DrainTo moves every queued element to dst
func (q *ArrayBlockingQueue[T]) DrainTo(dst *[]T) int {
	return q.DrainToN(dst, math.MaxInt)
}

// DrainToN moves at most n queued elements to dst
func (q *ArrayBlockingQueue[T]) DrainToN(dst *[]T, n int) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	moved := 0
	for q.size > 0 && moved < n {
		*dst = append(*dst, q.dequeue())
		moved++
	}
	return moved
}

// Len returns the number of queued elements
func (q *ArrayBlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the capacity
func (q *ArrayBlockingQueue[T]) Cap() int {
	return len(q.items)
}

// RemainingCapacity returns Cap() - Len()
func (q *ArrayBlockingQueue[T]) RemainingCapacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.size
}

func (q *ArrayBlockingQueue[T]) enqueue(v T) {
	q.items[q.tail] = v
	q.tail = (q.tail + 1) % len(q.items)
	q.size++
	q.notEmpty.Signal()
}

func (q *ArrayBlockingQueue[T]) dequeue() T {
	v := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	q.notFull.Signal()
	return v
}
