// Package queue provides bounded and unbounded blocking FIFO queues.
//
// Both implementations guard their storage with a single mutex and two
// condition variables, one for "not empty" and one for "not full". Every
// wait sits in a loop that re-checks its predicate, and timed operations
// compute one absolute deadline up front so that repeated wakeups cannot
// stretch the wait past it.
package queue

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/jzx17/goexecutor/pkg/types"
)

// BlockingQueue is a thread-safe FIFO with blocking and timed insert/remove
type BlockingQueue[T any] interface {
	// Add inserts v or fails with types.ErrQueueFull
	Add(v T) error

	// Put inserts v, blocking while the queue is full
	Put(ctx context.Context, v T) error

	// Offer inserts v if there is space, without blocking
	Offer(v T) (bool, error)

	// OfferTimeout inserts v, waiting up to timeout for space
	OfferTimeout(ctx context.Context, v T, timeout time.Duration) (bool, error)

	// Take removes the head, blocking while the queue is empty
	Take(ctx context.Context) (T, error)

	// Poll removes the head if there is one, without blocking
	Poll() (T, bool)

	// PollTimeout removes the head, waiting up to timeout for one
	PollTimeout(ctx context.Context, timeout time.Duration) (T, bool, error)

	// Remove deletes the first element matching, preserving the order of the rest
	Remove(match func(T) bool) bool

	// DrainTo moves every queued element to dst and returns how many moved
	DrainTo(dst *[]T) int

	// DrainToN moves at most n queued elements to dst and returns how many moved
	DrainToN(dst *[]T, n int) int

	// Len returns the number of queued elements
	Len() int

	// Cap returns the capacity
	Cap() int

	// RemainingCapacity returns Cap() - Len()
	RemainingCapacity() int
}

// Kind selects a BlockingQueue backing
type Kind string

const (
	// KindLinked is a singly linked list, optionally bounded
	KindLinked Kind = "linked"
	// KindArray is a fixed circular buffer
	KindArray Kind = "array"
)

// New creates a queue of the given kind. Capacity 0 means unbounded and is
// only valid for KindLinked.
func New[T any](kind Kind, capacity int, clock types.Clock) (BlockingQueue[T], error) {
	switch kind {
	case KindLinked, "":
		return NewLinkedBlockingQueue[T](capacity, clock)
	case KindArray:
		return NewArrayBlockingQueue[T](capacity, clock)
	default:
		return nil, fmt.Errorf("unknown queue kind %q", kind)
	}
}

func isNil[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func checkTimeout(timeout time.Duration) error {
	if timeout < 0 {
		return fmt.Errorf("%w: %v", types.ErrInvalidTimeout, timeout)
	}
	return nil
}
