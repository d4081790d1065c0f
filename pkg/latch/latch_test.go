package latch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/goexecutor/internal/testutils"
	"github.com/jzx17/goexecutor/pkg/types"
)

func TestCountDownLatch(t *testing.T) {
	l := NewCountDownLatch(3, nil)
	assert.Equal(t, 3, l.Count())

	assert.False(t, l.CountDown())
	assert.False(t, l.CountDown())
	assert.True(t, l.CountDown(), "the call reaching zero reports it")
	assert.False(t, l.CountDown(), "an open latch stays at zero")
	assert.Equal(t, 0, l.Count())

	require.NoError(t, l.Await(context.Background()))
}

func TestCountDownLatch_Zero(t *testing.T) {
	l := NewCountDownLatch(0, nil)
	select {
	case <-l.Done():
	default:
		t.Fatal("a zero latch starts open")
	}
	ok, err := l.AwaitTimeout(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCountDownLatch_CountDownBy(t *testing.T) {
	l := NewCountDownLatch(5, nil)
	assert.False(t, l.CountDownBy(0))
	assert.False(t, l.CountDownBy(2))
	assert.True(t, l.CountDownBy(10))
	assert.Equal(t, 0, l.Count())
}

func TestCountDownLatch_ConcurrentSingleOpener(t *testing.T) {
	const n = 64
	l := NewCountDownLatch(n, nil)

	var openers atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.CountDown() {
				openers.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), openers.Load())
}

func TestCountDownLatch_AwaitTimeout(t *testing.T) {
	mock, clock := testutils.NewMockClock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l := NewCountDownLatch(1, clock)

	results := make(chan bool, 1)
	go func() {
		ok, _ := l.AwaitTimeout(ctx, time.Second)
		results <- ok
	}()

	testutils.FireNextTimer(ctx, t, mock)
	assert.False(t, <-results)

	_, err := l.AwaitTimeout(ctx, -time.Second)
	assert.ErrorIs(t, err, types.ErrInvalidTimeout)
}

func TestWinner_FirstOfferWins(t *testing.T) {
	var released []bool
	w := NewWinner[int](nil, func(hasValue bool) { released = append(released, hasValue) })

	assert.False(t, w.IsSet())
	assert.True(t, w.Offer(1))
	assert.False(t, w.Offer(2))
	w.Close()

	v, ok := w.Value()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []bool{true}, released)

	v, ok, err := w.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestWinner_CloseWithoutValue(t *testing.T) {
	w := NewWinner[string](nil, nil)
	w.Close()

	assert.False(t, w.Offer("late"), "offers after an empty release still never win")
	_, ok, err := w.Await(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWinner_ConcurrentOffers(t *testing.T) {
	const n = 32
	w := NewWinner[int](nil, nil)

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if w.Offer(i) {
				winners.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.True(t, w.IsSet())
}

func TestWinner_AwaitTimeout(t *testing.T) {
	mock, clock := testutils.NewMockClock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := NewWinner[int](clock, nil)

	errs := make(chan error, 1)
	go func() {
		_, _, err := w.AwaitTimeout(ctx, 500*time.Millisecond)
		errs <- err
	}()

	testutils.FireNextTimer(ctx, t, mock)
	assert.ErrorIs(t, <-errs, types.ErrTimeout)

	_, _, err := w.AwaitTimeout(ctx, -1)
	assert.ErrorIs(t, err, types.ErrInvalidTimeout)
}
