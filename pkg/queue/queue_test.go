package queue

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jzx17/goexecutor/internal/testutils"
	"github.com/jzx17/goexecutor/pkg/types"
)

var kinds = []Kind{KindLinked, KindArray}

func newQueue(t *testing.T, kind Kind, capacity int) BlockingQueue[int] {
	t.Helper()
	q, err := New[int](kind, capacity, nil)
	require.NoError(t, err)
	return q
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		capacity    int
		expectError bool
	}{
		{name: "unbounded linked", kind: KindLinked, capacity: 0},
		{name: "bounded linked", kind: KindLinked, capacity: 5},
		{name: "empty kind is linked", kind: "", capacity: 0},
		{name: "array", kind: KindArray, capacity: 5},
		{name: "array needs capacity", kind: KindArray, capacity: 0, expectError: true},
		{name: "negative capacity", kind: KindLinked, capacity: -1, expectError: true},
		{name: "unknown kind", kind: "ring", capacity: 5, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New[int](tt.kind, tt.capacity, nil)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, q)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestBlockingQueue_FIFO(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 8)
			ctx := context.Background()

			// push through the buffer twice so the array variant wraps
			for round := 0; round < 2; round++ {
				for i := 0; i < 8; i++ {
					require.NoError(t, q.Put(ctx, round*10+i))
				}
				for i := 0; i < 8; i++ {
					v, err := q.Take(ctx)
					require.NoError(t, err)
					assert.Equal(t, round*10+i, v)
				}
			}
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestBlockingQueue_Capacity(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 3)

			for i := 0; i < 3; i++ {
				ok, err := q.Offer(i)
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, 3-i-1, q.RemainingCapacity())
			}

			ok, err := q.Offer(99)
			require.NoError(t, err)
			assert.False(t, ok, "offer on a full queue must fail")
			assert.ErrorIs(t, q.Add(99), types.ErrQueueFull)
			assert.Equal(t, 3, q.Len())
			assert.Equal(t, 3, q.Cap())

			v, ok := q.Poll()
			assert.True(t, ok)
			assert.Equal(t, 0, v)
			assert.NoError(t, q.Add(3))
		})
	}
}

func TestBlockingQueue_PollEmpty(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 2)
			_, ok := q.Poll()
			assert.False(t, ok)
		})
	}
}

func TestBlockingQueue_NilTask(t *testing.T) {
	q, err := NewLinkedBlockingQueue[types.Runnable](0, nil)
	require.NoError(t, err)

	var fn types.RunnableFunc
	assert.ErrorIs(t, q.Put(context.Background(), nil), types.ErrNilTask)
	assert.ErrorIs(t, q.Put(context.Background(), fn), types.ErrNilTask)

	_, err = q.Offer(nil)
	assert.ErrorIs(t, err, types.ErrNilTask)
	assert.ErrorIs(t, q.Add(nil), types.ErrNilTask)
	assert.Equal(t, 0, q.Len())
}

func TestBlockingQueue_NegativeTimeout(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 2)
			ctx := context.Background()

			_, _, err := q.PollTimeout(ctx, -time.Millisecond)
			assert.ErrorIs(t, err, types.ErrInvalidTimeout)

			_, err = q.OfferTimeout(ctx, 1, -time.Millisecond)
			assert.ErrorIs(t, err, types.ErrInvalidTimeout)
		})
	}
}

func TestBlockingQueue_PollTimeoutLowerBound(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 2)
			timeout := 50 * time.Millisecond

			start := time.Now()
			_, ok, err := q.PollTimeout(context.Background(), timeout)
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.False(t, ok)
			assert.GreaterOrEqual(t, elapsed, timeout)
		})
	}
}

func TestBlockingQueue_PollTimeoutMockClock(t *testing.T) {
	mock, clock := testutils.NewMockClock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q, err := NewLinkedBlockingQueue[int](0, clock)
	require.NoError(t, err)

	type result struct {
		ok  bool
		err error
	}
	results := make(chan result, 1)
	go func() {
		_, ok, err := q.PollTimeout(ctx, time.Second)
		results <- result{ok, err}
	}()

	d := testutils.FireNextTimer(ctx, t, mock)
	assert.Equal(t, time.Second, d)

	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.False(t, r.ok)
	case <-ctx.Done():
		t.Fatal("PollTimeout did not return after its deadline")
	}
}

func TestBlockingQueue_OfferTimeoutMockClock(t *testing.T) {
	mock, clock := testutils.NewMockClock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q, err := NewArrayBlockingQueue[int](1, clock)
	require.NoError(t, err)
	require.NoError(t, q.Add(1))

	results := make(chan bool, 1)
	go func() {
		ok, _ := q.OfferTimeout(ctx, 2, 200*time.Millisecond)
		results <- ok
	}()

	testutils.FireNextTimer(ctx, t, mock)
	assert.False(t, <-results)
	assert.Equal(t, 1, q.Len())
}

func TestBlockingQueue_PutUnblocksOnTake(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 1)
			ctx := context.Background()
			require.NoError(t, q.Put(ctx, 1))

			done := make(chan error, 1)
			go func() { done <- q.Put(ctx, 2) }()

			select {
			case <-done:
				t.Fatal("put on a full queue returned early")
			case <-time.After(20 * time.Millisecond):
			}

			v, err := q.Take(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, v)
			require.NoError(t, <-done)

			v, err = q.Take(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, v)
		})
	}
}

func TestBlockingQueue_TakeCancelled(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 1)
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				_, err := q.Take(ctx)
				done <- err
			}()
			cancel()

			assert.ErrorIs(t, <-done, context.Canceled)

			// the abandoned wait must not swallow a later element
			require.NoError(t, q.Add(7))
			v, ok := q.Poll()
			assert.True(t, ok)
			assert.Equal(t, 7, v)
		})
	}
}

func TestBlockingQueue_Drain(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 10)
			for i := 0; i < 6; i++ {
				require.NoError(t, q.Add(i))
			}

			var dst []int
			assert.Equal(t, 2, q.DrainToN(&dst, 2))
			assert.Equal(t, []int{0, 1}, dst)

			assert.Equal(t, 4, q.DrainTo(&dst))
			assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, dst)
			assert.Equal(t, 0, q.Len())
			assert.Equal(t, 0, q.DrainTo(&dst))
		})
	}
}

func TestBlockingQueue_Remove(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 4)
			ctx := context.Background()

			// move head and tail off zero so the buffer wraps
			for i := 0; i < 3; i++ {
				require.NoError(t, q.Add(-1))
				_, _ = q.Poll()
			}
			for i := 1; i <= 4; i++ {
				require.NoError(t, q.Add(i))
			}

			assert.True(t, q.Remove(func(v int) bool { return v == 2 }))
			assert.False(t, q.Remove(func(v int) bool { return v == 42 }))
			assert.Equal(t, 3, q.Len())
			assert.Equal(t, 1, q.RemainingCapacity())

			require.NoError(t, q.Add(5))
			assert.True(t, q.Remove(func(v int) bool { return v == 5 }))
			require.NoError(t, q.Add(6))

			var got []int
			for q.Len() > 0 {
				v, err := q.Take(ctx)
				require.NoError(t, err)
				got = append(got, v)
			}
			assert.Equal(t, []int{1, 3, 4, 6}, got)
		})
	}
}

func TestBlockingQueue_ConcurrentProducersConsumers(t *testing.T) {
	const producers, perProducer = 4, 250

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			q := newQueue(t, kind, 16)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			for p := 0; p < producers; p++ {
				p := p
				g.Go(func() error {
					for i := 0; i < perProducer; i++ {
						if err := q.Put(gctx, p*perProducer+i); err != nil {
							return err
						}
					}
					return nil
				})
			}

			got := make(chan int, producers*perProducer)
			for c := 0; c < 3; c++ {
				g.Go(func() error {
					for {
						v, ok, err := q.PollTimeout(gctx, 100*time.Millisecond)
						if err != nil {
							return err
						}
						if !ok {
							return nil
						}
						got <- v
					}
				})
			}

			require.NoError(t, g.Wait())
			close(got)

			var values []int
			for v := range got {
				values = append(values, v)
			}
			sort.Ints(values)
			require.Len(t, values, producers*perProducer)
			for i, v := range values {
				assert.Equal(t, i, v)
			}
		})
	}
}

func TestBlockingQueue_PutCancelled(t *testing.T) {
	q := newQueue(t, KindArray, 1)
	require.NoError(t, q.Add(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := q.Put(ctx, 2)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, q.Len())
}
