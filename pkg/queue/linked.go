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

type node[T any] struct {
	value T
	next  *node[T]
}

// LinkedBlockingQueue is a BlockingQueue backed by a singly linked list.
// Insert and remove at the ends are O(1); no compaction is ever needed.
type LinkedBlockingQueue[T any] struct {
	capacity int
	head     *node[T]
	tail     *node[T]
	size     int

	mu       sync.Mutex
	notEmpty *syncx.Cond
	notFull  *syncx.Cond
	clock    types.Clock
}

// NewLinkedBlockingQueue creates a linked queue. Capacity 0 means unbounded.
func NewLinkedBlockingQueue[T any](capacity int, clock types.Clock) (*LinkedBlockingQueue[T], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("queue capacity cannot be negative, got %d", capacity)
	}
	if capacity == 0 {
		capacity = math.MaxInt
	}

	q := &LinkedBlockingQueue[T]{
		capacity: capacity,
		clock:    types.ClockOrDefault(clock),
	}
	q.notEmpty = syncx.NewCond(&q.mu, q.clock)
	q.notFull = syncx.NewCond(&q.mu, q.clock)
	return q, nil
}

// Add inserts v or fails with types.ErrQueueFull
func (q *LinkedBlockingQueue[T]) Add(v T) error {
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
func (q *LinkedBlockingQueue[T]) Offer(v T) (bool, error) {
	if isNil(v) {
		return false, types.ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == q.capacity {
		return false, nil
	}
	q.enqueue(v)
	return true, nil
}

// Put inserts v, blocking while the queue is full
func (q *LinkedBlockingQueue[T]) Put(ctx context.Context, v T) error {
	if isNil(v) {
		return types.ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == q.capacity {
		if err := q.notFull.Wait(ctx); err != nil {
			return err
		}
	}
	q.enqueue(v)
	return nil
}

// OfferTimeout inserts v, waiting up to timeout for space
func (q *LinkedBlockingQueue[T]) OfferTimeout(ctx context.Context, v T, timeout time.Duration) (bool, error) {
	if isNil(v) {
		return false, types.ErrNilTask
	}
	if err := checkTimeout(timeout); err != nil {
		return false, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	deadline := q.clock.Now().Add(timeout)
	for q.size == q.capacity {
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
func (q *LinkedBlockingQueue[T]) Take(ctx context.Context) (T, error) {
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
func (q *LinkedBlockingQueue[T]) Poll() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.dequeue(), true
}

// PollTimeout removes the head, waiting up to timeout for one
func (q *LinkedBlockingQueue[T]) PollTimeout(ctx context.Context, timeout time.Duration) (T, bool, error) {
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

// Remove deletes the first element matching
func (q *LinkedBlockingQueue[T]) Remove(match func(T) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	var prev *node[T]
	for n := q.head; n != nil; prev, n = n, n.next {
		if !match(n.value) {
			continue
		}
		if prev == nil {
			q.head = n.next
		} else {
			prev.next = n.next
		}
		if q.tail == n {
			q.tail = prev
		}
		q.size--
		q.notFull.Signal()
		return true
	}
	return false
}

// DrainTo moves every queued element to dst
func (q *LinkedBlockingQueue[T]) DrainTo(dst *[]T) int {
	return q.DrainToN(dst, math.MaxInt)
}

// DrainToN moves at most n queued elements to dst
func (q *LinkedBlockingQueue[T]) DrainToN(dst *[]T, n int) int {
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
func (q *LinkedBlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the capacity, math.MaxInt when unbounded
func (q *LinkedBlockingQueue[T]) Cap() int {
	return q.capacity
}

// RemainingCapacity returns Cap() - Len()
func (q *LinkedBlockingQueue[T]) RemainingCapacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity - q.size
}

// enqueue appends v; q.mu must be held
func (q *LinkedBlockingQueue[T]) enqueue(v T) {
	n := &node[T]{value: v}
	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.size++
	q.notEmpty.Signal()
}

// dequeue unlinks the head; q.mu must be held and size > 0
func (q *LinkedBlockingQueue[T]) dequeue() T {
	n := q.head
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	n.next = nil
	q.size--
	q.notFull.Signal()
	return n.value
}
