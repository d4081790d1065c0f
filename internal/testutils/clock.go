package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/goexecutor/pkg/types"
)

// NewMockClock creates a quartz mock and the types.Clock backed by it
func NewMockClock(t testing.TB) (*quartz.Mock, types.Clock) {
	mock := quartz.NewMock(t)
	return mock, types.FromQuartz(mock)
}

// AwaitTimer blocks until some goroutine has a timer armed on mock and
// returns its remaining duration
func AwaitTimer(t testing.TB, mock *quartz.Mock) time.Duration {
	t.Helper()
	var d time.Duration
	require.Eventually(t, func() bool {
		var ok bool
		d, ok = mock.Peek()
		return ok
	}, 5*time.Second, time.Millisecond, "no timer was armed on the mock clock")
	return d
}

// FireNextTimer waits for a timer to be armed on mock, advances the clock
// to it and waits for its callbacks to run
func FireNextTimer(ctx context.Context, t testing.TB, mock *quartz.Mock) time.Duration {
	t.Helper()
	AwaitTimer(t, mock)
	d, w := mock.AdvanceNext()
	w.MustWait(ctx)
	return d
}
