package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jzx17/goexecutor/pkg/future"
	"github.com/jzx17/goexecutor/pkg/latch"
	"github.com/jzx17/goexecutor/pkg/types"
)

// LoggerProvider is implemented by executors that expose their event logger
type LoggerProvider interface {
	Logger() *zap.Logger
}

// Submit wraps fn in a task, hands it to svc and returns the task handle
func Submit[T any](svc types.ExecutorService, fn future.Callable[T], opts ...future.Option[T]) (*future.Task[T], error) {
	if fn == nil {
		return nil, types.ErrNilTask
	}
	task := future.New(fn, withDefaults(svc, opts)...)
	if err := svc.Execute(task); err != nil {
		return nil, err
	}
	return task, nil
}

// SubmitRunnable submits fn and returns a handle that yields result once fn
// succeeds
func SubmitRunnable[T any](svc types.ExecutorService, fn func(ctx context.Context) error, result T, opts ...future.Option[T]) (*future.Task[T], error) {
	if fn == nil {
		return nil, types.ErrNilTask
	}
	task := future.FromRunnable(fn, result, withDefaults(svc, opts)...)
	if err := svc.Execute(task); err != nil {
		return nil, err
	}
	return task, nil
}

// InvokeAll runs every task and waits until all of them are done. The
// returned handles are in task order. If ctx ends first, the unfinished
// tasks are cancelled and ctx's error is returned with the handles.
func InvokeAll[T any](ctx context.Context, svc types.ExecutorService, tasks []future.Callable[T]) ([]*future.Task[T], error) {
	futures, pending, err := submitAll(svc, tasks)
	if err != nil {
		return nil, err
	}
	if err := pending.Await(ctx); err != nil {
		cancelUnfinished(futures)
		return futures, err
	}
	return futures, nil
}

// InvokeAllTimeout is InvokeAll bounded by timeout. Tasks still unfinished
// at the deadline are cancelled, so every returned handle is done.
func InvokeAllTimeout[T any](ctx context.Context, svc types.ExecutorService, tasks []future.Callable[T], timeout time.Duration) ([]*future.Task[T], error) {
	if timeout < 0 {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidTimeout, timeout)
	}
	futures, pending, err := submitAll(svc, tasks)
	if err != nil {
		return nil, err
	}
	completed, err := pending.AwaitTimeout(ctx, timeout)
	if !completed {
		cancelUnfinished(futures)
	}
	return futures, err
}

// InvokeAny runs every task and returns the value of the first one to
// succeed; the others are cancelled. If every task fails the error is an
// *types.ExecutionError.
func InvokeAny[T any](ctx context.Context, svc types.ExecutorService, tasks []future.Callable[T]) (T, error) {
	return invokeAny(ctx, svc, tasks, nil)
}

// InvokeAnyTimeout is InvokeAny bounded by timeout. It fails with
// types.ErrTimeout only if no task has finished by the deadline; when some
// have failed and none succeeded it reports the failure instead.
func InvokeAnyTimeout[T any](ctx context.Context, svc types.ExecutorService, tasks []future.Callable[T], timeout time.Duration) (T, error) {
	if timeout < 0 {
		var zero T
		return zero, fmt.Errorf("%w: %v", types.ErrInvalidTimeout, timeout)
	}
	return invokeAny(ctx, svc, tasks, &timeout)
}

func invokeAny[T any](ctx context.Context, svc types.ExecutorService, tasks []future.Callable[T], timeout *time.Duration) (T, error) {
	var zero T
	if len(tasks) == 0 {
		return zero, types.ErrNoTasks
	}
	if err := checkTasks(tasks); err != nil {
		return zero, err
	}

	clock := clockOf(svc)
	logger := loggerOf(svc)
	winner := latch.NewWinner[T](clock, func(hasValue bool) {
		logger.Debug("latch released", zap.Bool("has_value", hasValue))
	})

	// a failure only counts down; the last task to finish without a
	// winner closes the latch empty
	var remaining atomic.Int32
	remaining.Store(int32(len(tasks)))
	onDone := func(t *future.Task[T]) {
		if v, _, err := t.TryGet(); err == nil {
			winner.Offer(v)
		}
		if remaining.Add(-1) == 0 {
			winner.Close()
		}
	}

	futures := make([]*future.Task[T], 0, len(tasks))
	defer func() { cancelUnfinished(futures) }()
	for _, fn := range tasks {
		task := future.New(fn, future.WithClock[T](clock), future.WithCompletion(onDone))
		if err := svc.Execute(task); err != nil {
			return zero, err
		}
		futures = append(futures, task)
	}

	var (
		v   T
		ok  bool
		err error
	)
	if timeout == nil {
		v, ok, err = winner.Await(ctx)
	} else {
		v, ok, err = winner.AwaitTimeout(ctx, *timeout)
	}
	if ok {
		return v, nil
	}
	if v, ok := winner.Value(); ok {
		return v, nil
	}
	if err != nil && !errors.Is(err, types.ErrTimeout) {
		return zero, err
	}

	failed, inProgress, firstErr := tally(futures)
	if err != nil && failed == 0 {
		return zero, err
	}
	cause := fmt.Errorf("no task completed successfully: failed %d, in progress %d", failed, inProgress)
	if firstErr != nil {
		cause = fmt.Errorf("%w: %w", cause, firstErr)
	}
	return zero, types.NewExecutionError("", cause)
}

// tally counts the tasks that ended without success and those still
// running, and returns the first failure seen
func tally[T any](futures []*future.Task[T]) (failed, inProgress int, firstErr error) {
	for _, f := range futures {
		_, done, err := f.TryGet()
		switch {
		case !done:
			inProgress++
		case err != nil:
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return failed, inProgress, firstErr
}

// submitAll submits every task with a completion hook counting down the
// returned latch. If a submission fails the tasks already submitted are
// cancelled.
func submitAll[T any](svc types.ExecutorService, tasks []future.Callable[T]) ([]*future.Task[T], *latch.CountDownLatch, error) {
	if err := checkTasks(tasks); err != nil {
		return nil, nil, err
	}

	clock := clockOf(svc)
	pending := latch.NewCountDownLatch(len(tasks), clock)
	onDone := func(*future.Task[T]) { pending.CountDown() }

	futures := make([]*future.Task[T], 0, len(tasks))
	for _, fn := range tasks {
		task := future.New(fn, future.WithClock[T](clock), future.WithCompletion(onDone))
		if err := svc.Execute(task); err != nil {
			cancelUnfinished(futures)
			return nil, nil, err
		}
		futures = append(futures, task)
	}
	return futures, pending, nil
}

func checkTasks[T any](tasks []future.Callable[T]) error {
	for i, fn := range tasks {
		if fn == nil {
			return fmt.Errorf("%w: index %d", types.ErrNilTask, i)
		}
	}
	return nil
}

func cancelUnfinished[T any](futures []*future.Task[T]) {
	for _, f := range futures {
		if !f.IsDone() {
			f.Cancel(true)
		}
	}
}

func withDefaults[T any](svc types.ExecutorService, opts []future.Option[T]) []future.Option[T] {
	return append([]future.Option[T]{future.WithClock[T](clockOf(svc))}, opts...)
}

func clockOf(svc types.ExecutorService) types.Clock {
	if cp, ok := svc.(types.ClockProvider); ok {
		return types.ClockOrDefault(cp.GetClock())
	}
	return types.NewRealClock()
}

func loggerOf(svc types.ExecutorService) *zap.Logger {
	if lp, ok := svc.(LoggerProvider); ok && lp.Logger() != nil {
		return lp.Logger()
	}
	return zap.NewNop()
}
