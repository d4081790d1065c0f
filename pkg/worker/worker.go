package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jzx17/goexecutor/pkg/queue"
	"github.com/jzx17/goexecutor/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is a loop bound to one goroutine that takes runnables from a
// queue and runs them to completion.
//
// A worker owns two contexts. runCtx is handed to every task as its
// cancellation token and is cancelled by Interrupt. waitCtx is derived
// from runCtx and only wakes the worker while it is blocked in Take; it is
// cancelled by InterruptIdle, which therefore never disturbs a task in
// flight.
type Worker struct {
	id    int
	state int32 // atomic WorkerState
	queue queue.BlockingQueue[types.Runnable]

	running     atomic.Bool
	poolRunning *atomic.Bool
	idleCounter *atomic.Int32

	runCtx     context.Context
	interrupt  context.CancelFunc
	waitCtx    context.Context
	wakeUpIdle context.CancelFunc

	done chan struct{}

	// statistics
	totalProcessed int64
	totalFailed    int64
	lastTaskTime   int64 // Unix nanosecond timestamp

	// error handling
	errorHandler types.ErrorHandler

	// pool callbacks
	completionCallback func(time.Duration, bool)
	exitCallback       func(*Worker)

	clock  types.Clock
	logger *zap.Logger

	// synchronization
	mu sync.RWMutex
}

// NewWorker creates a new Worker with default real clock
func NewWorker(id int, q queue.BlockingQueue[types.Runnable]) *Worker {
	return NewWorkerWithClock(id, q, types.NewRealClock())
}

// NewWorkerWithClock creates a new Worker with specified clock
func NewWorkerWithClock(id int, q queue.BlockingQueue[types.Runnable], clock types.Clock) *Worker {
	w := &Worker{
		id:     id,
		state:  int32(WorkerStateIdle),
		queue:  q,
		done:   make(chan struct{}),
		clock:  types.ClockOrDefault(clock),
		logger: zap.NewNop(),
	}
	w.running.Store(true)
	return w
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// setState stores state and keeps the pool's idle counter in step
func (w *Worker) setState(state WorkerState) {
	old := WorkerState(atomic.SwapInt32(&w.state, int32(state)))
	if w.idleCounter == nil || old == state {
		return
	}
	if state == WorkerStateIdle {
		w.idleCounter.Add(1)
	} else if old == WorkerStateIdle {
		w.idleCounter.Add(-1)
	}
}

// IsIdle reports whether the worker is between tasks
func (w *Worker) IsIdle() bool {
	return w.State() == WorkerStateIdle
}

// SetErrorHandler sets the error handler
func (w *Worker) SetErrorHandler(handler types.ErrorHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errorHandler = handler
}

// SetCompletionCallback sets the task completion callback
func (w *Worker) SetCompletionCallback(callback func(time.Duration, bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.completionCallback = callback
}

// SetLogger sets the event logger
func (w *Worker) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger = logger.With(zap.Int("worker", w.id))
}

// Start runs the worker loop until it is stopped or interrupted. The
// worker's contexts derive from ctx.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	w.runCtx, w.interrupt = context.WithCancel(ctx)
	w.waitCtx, w.wakeUpIdle = context.WithCancel(w.runCtx)
	logger := w.logger
	exit := w.exitCallback
	w.mu.Unlock()

	defer func() {
		w.interrupt()
		w.setState(WorkerStateStopped)
		close(w.done)
		logger.Debug("worker stopped")
		if exit != nil {
			exit(w)
		}
	}()

	logger.Debug("worker started")

	for {
		// idle is published before the running flags are read; a
		// concurrent shutdown clears the flags before reading idle, so
		// one of the two always sees the other
		w.setState(WorkerStateIdle)
		if !w.isRunning() {
			return
		}

		task, err := w.queue.Take(w.waitCtx)
		if err != nil {
			logger.Debug("worker interrupted while waiting", zap.Error(err))
			return
		}
		w.processTask(task)
	}
}

func (w *Worker) isRunning() bool {
	if !w.running.Load() {
		return false
	}
	return w.poolRunning == nil || w.poolRunning.Load()
}

// processTask processes a single task
func (w *Worker) processTask(task types.Runnable) {
	// set to working state
	w.setState(WorkerStateWorking)

	// record start time
	startTime := w.clock.Now()
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())

	// execute task
	err := w.executeTask(task)

	// calculate execution time
	executionTime := w.clock.Since(startTime)

	// update statistics
	failed := err != nil
	if failed {
		atomic.AddInt64(&w.totalFailed, 1)
		w.handleError(err)
	} else {
		atomic.AddInt64(&w.totalProcessed, 1)
	}

	// call completion callback
	w.mu.RLock()
	callback := w.completionCallback
	w.mu.RUnlock()

	if callback != nil {
		callback(executionTime, failed)
	}
}

// executeTask runs a task with panic recovery support. future.Task
// captures its own panics; this guards plain Runnables.
func (w *Worker) executeTask(task types.Runnable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			err = &types.PanicError{Value: r, Stack: string(buf[:n])}
		}
	}()

	return task.Run(w.runCtx)
}

// handleError hands a task failure to the error handler
func (w *Worker) handleError(err error) {
	w.mu.RLock()
	handler := w.errorHandler
	logger := w.logger
	w.mu.RUnlock()

	logger.Debug("task failed", zap.Error(err))
	if handler != nil {
		_ = handler(err)
	}
}

// Shutdown asks the worker to exit after its current task
func (w *Worker) Shutdown() {
	w.running.Store(false)
}

// InterruptIdle wakes the worker if it is blocked waiting for a task. A
// task in flight is not affected.
func (w *Worker) InterruptIdle() {
	w.mu.RLock()
	wake := w.wakeUpIdle
	w.mu.RUnlock()
	if wake != nil {
		wake()
	}
}

// Interrupt cancels the context of the task in flight, if any, and wakes
// the worker if it is waiting.
func (w *Worker) Interrupt() {
	w.mu.RLock()
	interrupt := w.interrupt
	w.mu.RUnlock()
	if interrupt != nil {
		interrupt()
	}
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
		LastTaskTime:   time.Unix(0, atomic.LoadInt64(&w.lastTaskTime)),
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	LastTaskTime   time.Time
}

// IsActive checks if Worker is active
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if Worker is idle
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// GetSuccessRate gets the success rate
func (ws WorkerStats) GetSuccessRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalProcessed) / float64(total)
}
