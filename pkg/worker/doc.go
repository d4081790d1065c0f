/*
Package worker provides a FIFO executor: a pool of worker goroutines
consuming a blocking task queue, with submit, bulk invocation and a
graceful or immediate shutdown.

# Overview

A Pool owns a queue.BlockingQueue and up to Config.PoolSize workers. With
Prestart set every worker is started at construction; otherwise workers
are started lazily by submissions, one per submission that finds no idle
worker, until PoolSize is reached. Only the submitter that wins the CAS on
the worker counter starts a worker.

# Core Components

## Pool

  - Execute enqueues a types.Runnable, blocking while a bounded queue is full
  - Submit and SubmitRunnable wrap a function in a future.Task and return it
  - InvokeAll and InvokeAllTimeout run a batch and wait for all of it
  - InvokeAny and InvokeAnyTimeout return the first successful result

## Worker

A loop bound to one goroutine. It takes a task, runs it with panic
recovery, records statistics and hands failures to the ErrorHandler. A
failing task never stops a worker.

# Lifecycle

The pool moves Running → ShuttingDown → Terminated. Shutdown and
ShutdownNow pass a single-acquire gate, so only the first call does any
work.

  - Shutdown rejects new tasks, lets in-flight tasks finish and wakes idle
    workers so they exit. Tasks still queued when the last worker exits
    are cancelled.
  - ShutdownNow also drains the queue, returning the unstarted tasks, and
    cancels the context of every running task.

Termination is a countdown with one slot per possible worker. Each worker
counts its slot down as it exits and shutdown counts down the slots no
worker ever took.

# Cancellation

Tasks observe cancellation through the context passed to Run. A task that
never checks its context cannot be stopped; ShutdownNow and Cancel(true)
only ask.

# Usage Example

	pool, err := worker.NewFixedPool(4)
	if err != nil {
		return err
	}
	defer pool.Shutdown()

	task, err := worker.Submit(pool, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		return err
	}
	v, err := task.Get(ctx)

	fastest, err := worker.InvokeAnyTimeout(ctx, pool, mirrors, time.Second)

# Observability

Lifecycle events are logged at debug level to Config.Logger, tagged with
the pool's uuid under the "pool" key. The default logger discards them.
*/
package worker
