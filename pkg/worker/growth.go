package worker

import (
	"time"

	"go.uber.org/zap"
)

// startWorkerIfNeeded starts a worker for an incoming submission when the
// pool is below PoolSize and there are not enough idle workers to absorb
// the queue plus the new task
func (p *Pool) startWorkerIfNeeded() {
	if !p.running.Load() {
		return
	}
	if int(p.workerCount.Load()) >= p.config.PoolSize {
		return
	}
	if int(p.idleWorkers.Load()) > p.queue.Len() {
		return
	}
	p.startWorkerIfBelow(p.config.PoolSize)
}

// startWorkerIfBelow reserves the next worker slot and starts a worker in
// it. It reports false once limit slots are taken.
func (p *Pool) startWorkerIfBelow(limit int) bool {
	for {
		n := p.workerCount.Load()
		if int(n) >= limit {
			return false
		}
		if p.workerCount.CompareAndSwap(n, n+1) {
			p.startWorker(int(n))
			return true
		}
	}
}

// startWorker starts the worker owning slot id. A reserved slot is always
// started, even after shutdown began, so that it counts towards termination.
func (p *Pool) startWorker(id int) {
	w := NewWorkerWithClock(id, p.queue, p.config.Clock)
	w.SetErrorHandler(p.config.ErrorHandler)
	w.SetLogger(p.logger)
	w.SetCompletionCallback(func(_ time.Duration, failed bool) {
		if failed {
			p.totalFailed.Add(1)
		} else {
			p.totalProcessed.Add(1)
		}
	})
	w.exitCallback = p.onWorkerExit
	w.poolRunning = &p.running
	w.idleCounter = &p.idleWorkers
	p.idleWorkers.Add(1)

	p.workersMu.Lock()
	p.workers = append(p.workers, w)
	p.workersMu.Unlock()

	p.logger.Debug("worker spawned", zap.Int("worker", id), zap.Int32("started", p.workerCount.Load()))
	go w.Start(p.ctx)
}

// closeUnstartedSlots claims every slot that no worker has taken yet and
// counts it down on the termination latch
func (p *Pool) closeUnstartedSlots() {
	size := int32(p.config.PoolSize)
	for {
		n := p.workerCount.Load()
		if n >= size {
			return
		}
		if p.workerCount.CompareAndSwap(n, size) {
			if p.termination.CountDownBy(int(size - n)) {
				p.terminate()
			}
			return
		}
	}
}
