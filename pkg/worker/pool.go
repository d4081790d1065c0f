package worker

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jzx17/goexecutor/pkg/future"
	"github.com/jzx17/goexecutor/pkg/latch"
	"github.com/jzx17/goexecutor/pkg/queue"
	"github.com/jzx17/goexecutor/pkg/types"
)

// Pool is a FIFO executor backed by a blocking queue and up to PoolSize
// worker goroutines.
//
// The lifecycle is Running → ShuttingDown → Terminated. Shutdown and
// ShutdownNow pass through a single-acquire gate, so whichever is called
// first performs the transition and every later call returns at once.
type Pool struct {
	id     string
	config *Config
	queue  queue.BlockingQueue[types.Runnable]
	logger *zap.Logger

	workersMu sync.RWMutex
	workers   []*Worker

	// workerCount counts started worker slots; only the submitter that
	// wins the CAS from n to n+1 starts worker n
	workerCount atomic.Int32
	idleWorkers atomic.Int32

	running      atomic.Bool
	shutdownGate *semaphore.Weighted
	termination  *latch.CountDownLatch

	// immediate is set by ShutdownNow before any worker can observe the
	// shutdown; the queue then belongs to ShutdownNow, not terminate
	immediate atomic.Bool

	// ctx parents every worker context and unblocks submitters waiting
	// for queue space; it is cancelled by ShutdownNow and on termination
	ctx    context.Context
	cancel context.CancelFunc

	totalProcessed atomic.Int64
	totalFailed    atomic.Int64
}

var _ types.ExecutorService = (*Pool)(nil)

// NewPool creates a new pool
func NewPool(config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	q, err := queue.New[types.Runnable](config.QueueKind, config.QueueCapacity, config.Clock)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		id:           id,
		config:       config,
		queue:        q,
		logger:       config.Logger.With(zap.String("pool", id)),
		workers:      make([]*Worker, 0, config.PoolSize),
		shutdownGate: semaphore.NewWeighted(1),
		termination:  latch.NewCountDownLatch(config.PoolSize, config.Clock),
		ctx:          ctx,
		cancel:       cancel,
	}
	p.running.Store(true)

	if config.Prestart {
		for p.startWorkerIfBelow(config.PoolSize) {
		}
	}

	p.logger.Debug("pool created",
		zap.Int("pool_size", config.PoolSize),
		zap.Int("queue_capacity", config.QueueCapacity),
		zap.String("queue_kind", string(config.QueueKind)),
		zap.Bool("prestart", config.Prestart))

	return p, nil
}

// NewFixedPool creates a pool of size workers, all started up front,
// over an unbounded linked queue
func NewFixedPool(size int) (*Pool, error) {
	config := DefaultConfig()
	config.PoolSize = size
	config.Prestart = true
	return NewPool(config)
}

// ID returns the pool identifier used in log events
func (p *Pool) ID() string {
	return p.id
}

// Logger returns the pool's event logger
func (p *Pool) Logger() *zap.Logger {
	return p.logger
}

// GetClock returns the pool clock
func (p *Pool) GetClock() types.Clock {
	return p.config.Clock
}

// Execute enqueues r, blocking while a bounded queue is full
func (p *Pool) Execute(r types.Runnable) error {
	if isNilRunnable(r) {
		return types.ErrNilTask
	}
	if !p.running.Load() {
		p.logger.Debug("task rejected", zap.String("reason", "shutdown"))
		return types.ErrRejectedExecution
	}

	p.startWorkerIfNeeded()

	entry := &queuedTask{Runnable: r}
	if err := p.queue.Put(p.ctx, entry); err != nil {
		p.logger.Debug("task rejected", zap.Error(err))
		return fmt.Errorf("%w: %v", types.ErrRejectedExecution, err)
	}

	// a shutdown that raced this submission may already have let every
	// worker go; withdraw the task if it is still queued
	if !p.running.Load() && p.queue.Remove(func(q types.Runnable) bool { return q == types.Runnable(entry) }) {
		p.logger.Debug("task rejected", zap.String("reason", "shutdown during submit"))
		return types.ErrRejectedExecution
	}

	p.logger.Debug("task accepted", zap.Int("queue_length", p.queue.Len()))
	return nil
}

// Submit submits fn and returns its task handle
func (p *Pool) Submit(fn future.Callable[any]) (*future.Task[any], error) {
	return Submit[any](p, fn)
}

// Shutdown stops accepting tasks. Workers finish their current task and
// exit; idle workers are woken so they can exit at once. Tasks still
// queued when the last worker exits are cancelled.
func (p *Pool) Shutdown() {
	if !p.shutdownGate.TryAcquire(1) {
		return
	}
	p.logger.Debug("shutdown requested")

	p.softShutdown()
	p.interruptWorkers(func(w *Worker) bool { return w.IsIdle() }, (*Worker).InterruptIdle)
}

// ShutdownNow stops accepting tasks, removes every queued task, and
// interrupts every worker including those running a task. The removed
// tasks are returned in queue order; they are neither run nor cancelled.
func (p *Pool) ShutdownNow() []types.Runnable {
	var pending []types.Runnable
	if !p.shutdownGate.TryAcquire(1) {
		return pending
	}
	p.logger.Debug("immediate shutdown requested")

	p.immediate.Store(true)
	p.softShutdown()
	var drained []types.Runnable
	n := p.queue.DrainTo(&drained)
	p.interruptWorkers(func(*Worker) bool { return true }, (*Worker).Interrupt)
	p.cancel()

	for _, r := range drained {
		pending = append(pending, unwrap(r))
	}
	p.logger.Debug("queued tasks drained", zap.Int("count", n))
	return pending
}

// softShutdown flips the pool out of Running and tells every worker to
// exit after its current task
func (p *Pool) softShutdown() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.closeUnstartedSlots()

	p.workersMu.RLock()
	defer p.workersMu.RUnlock()
	for _, w := range p.workers {
		w.Shutdown()
	}
}

func (p *Pool) interruptWorkers(filter func(*Worker) bool, interrupt func(*Worker)) {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()
	for _, w := range p.workers {
		if filter(w) {
			interrupt(w)
		}
	}
}

// IsShutdown reports whether shutdown has been requested
func (p *Pool) IsShutdown() bool {
	return !p.running.Load()
}

// IsTerminated reports whether every worker has exited
func (p *Pool) IsTerminated() bool {
	return p.termination.Count() == 0
}

// State returns the lifecycle state
func (p *Pool) State() types.PoolState {
	switch {
	case p.IsTerminated():
		return types.StateTerminated
	case p.IsShutdown():
		return types.StateShuttingDown
	default:
		return types.StateRunning
	}
}

// AwaitTermination blocks until every worker has exited or timeout elapses
func (p *Pool) AwaitTermination(timeout time.Duration) (bool, error) {
	return p.termination.AwaitTimeout(context.Background(), timeout)
}

// onWorkerExit is called once by every worker as its loop ends
func (p *Pool) onWorkerExit(w *Worker) {
	stats := w.Stats()
	p.logger.Debug("worker exited",
		zap.Int("worker", stats.ID),
		zap.Int64("processed", stats.TotalProcessed),
		zap.Int64("failed", stats.TotalFailed),
		zap.Float64("success_rate", stats.GetSuccessRate()))

	if p.termination.CountDown() {
		p.terminate()
	}
}

// terminate runs once, when the termination countdown reaches zero
func (p *Pool) terminate() {
	var orphans []types.Runnable
	if !p.immediate.Load() {
		p.queue.DrainTo(&orphans)
		for _, r := range orphans {
			if c, ok := unwrap(r).(types.Canceller); ok {
				c.Cancel(false)
			}
		}
	}
	p.cancel()
	p.logger.Debug("pool terminated", zap.Int("cancelled_tasks", len(orphans)))
}

// queuedTask gives every queued submission a distinct comparable identity,
// whatever the dynamic type of the runnable it carries
type queuedTask struct {
	types.Runnable
}

func unwrap(r types.Runnable) types.Runnable {
	if q, ok := r.(*queuedTask); ok {
		return q.Runnable
	}
	return r
}

// isNilRunnable also catches typed nil pointers and funcs held in r
func isNilRunnable(r types.Runnable) bool {
	if r == nil {
		return true
	}
	rv := reflect.ValueOf(r)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Size returns the configured maximum number of workers
func (p *Pool) Size() int {
	return p.config.PoolSize
}

// Stats returns pool statistics
func (p *Pool) Stats() types.WorkerPoolStats {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()

	var active, idle int
	for _, w := range p.workers {
		ws := w.Stats()
		if ws.IsActive() {
			active++
		} else if ws.IsIdle() {
			idle++
		}
	}

	return types.WorkerPoolStats{
		PoolSize:       p.config.PoolSize,
		StartedWorkers: len(p.workers),
		ActiveWorkers:  active,
		IdleWorkers:    idle,
		QueueSize:      p.queue.Len(),
		QueueCapacity:  p.queue.Cap(),
		TotalProcessed: p.totalProcessed.Load(),
		TotalFailed:    p.totalFailed.Load(),
		State:          p.State(),
	}
}

// GetWorkerStats gets statistics of all Workers
func (p *Pool) GetWorkerStats() []WorkerStats {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()

	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

// QueueLength gets the current queue length
func (p *Pool) QueueLength() int {
	return p.queue.Len()
}

// QueueCapacity gets the queue capacity
func (p *Pool) QueueCapacity() int {
	return p.queue.Cap()
}
