// Package pool implements a bounded, keyed worker pool.
//
// Tasks are submitted with a key. All tasks with the same key are executed by
// the same worker in submission order, tasks with different keys may run in
// parallel. Submit never blocks: every worker owns an unbounded lock-free
// queue, so a caller on a latency sensitive goroutine (e.g. an event loop)
// can hand off work without waiting for a free worker.
package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dHangman/lib/queue"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("pool")

// Task represents a unit of work
type Task func(ctx context.Context) error

// Stats is a point in time view of the pool's meters
type Stats struct {
	Workers     int
	Pending     int
	Submitted   int64
	Completed   int64
	Failed      int64
	Rejected    int64
	MeanLatency time.Duration
	P99Latency  time.Duration
	RatePerSec  float64
}

// WorkerPool manages concurrent processing
type WorkerPool struct {
	name    string
	queues  []*queue.Pump[Task]
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	closed  atomic.Bool

	registry  gometrics.Registry
	submitted gometrics.Meter
	completed gometrics.Meter
	failed    gometrics.Counter
	rejected  gometrics.Counter
	latency   gometrics.Timer
}

// NewWorkerPool creates a pool with the specified number of workers (at least one)
func NewWorkerPool(name string, workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	wp := &WorkerPool{
		name:      name,
		queues:    make([]*queue.Pump[Task], workerCount),
		ctx:       ctx,
		cancel:    cancel,
		registry:  gometrics.NewRegistry(),
		submitted: gometrics.NewMeter(),
		completed: gometrics.NewMeter(),
		failed:    gometrics.NewCounter(),
		rejected:  gometrics.NewCounter(),
		latency:   gometrics.NewTimer(),
	}

	for i := range wp.queues {
		wp.queues[i] = queue.NewPump[Task]()
	}

	_ = wp.registry.Register("submitted", wp.submitted)
	_ = wp.registry.Register("completed", wp.completed)
	_ = wp.registry.Register("failed", wp.failed)
	_ = wp.registry.Register("rejected", wp.rejected)
	_ = wp.registry.Register("latency", wp.latency)

	return wp
}

// Start launches the worker goroutines. Calling Start more than once has no effect.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		return
	}
	for i, q := range wp.queues {
		wp.wg.Add(1)
		go wp.worker(i, q)
	}
	Logger.Infof("[%s] started %d workers", wp.name, len(wp.queues))
}

// Submit queues a task on the worker owning key.
// Returns false if the pool is shut down; it never blocks.
func (wp *WorkerPool) Submit(key uint64, task Task) bool {
	if task == nil {
		return false
	}
	if wp.closed.Load() {
		wp.rejected.Inc(1)
		return false
	}

	q := wp.queues[key%uint64(len(wp.queues))]
	if !q.Push(&task) {
		wp.rejected.Inc(1)
		return false
	}

	wp.submitted.Mark(1)
	return true
}

// Wait stops accepting tasks and blocks until every queued task has run
func (wp *WorkerPool) Wait() {
	if wp.closed.CompareAndSwap(false, true) {
		for _, q := range wp.queues {
			q.Close()
		}
	}

	// without workers nobody would drain the queues
	wp.Start()
	wp.wg.Wait()
	Logger.Debugf("[%s] all workers completed", wp.name)
}

// Shutdown cancels the context passed to running tasks and waits for the workers
func (wp *WorkerPool) Shutdown() {
	Logger.Debugf("[%s] shutting down", wp.name)
	wp.cancel()
	wp.Wait()
	wp.submitted.Stop()
	wp.completed.Stop()
}

// Stats returns a snapshot of the pool's meters
func (wp *WorkerPool) Stats() Stats {
	pending := 0
	for _, q := range wp.queues {
		pending += q.Len()
	}

	latency := wp.latency.Snapshot()
	return Stats{
		Workers:     len(wp.queues),
		Pending:     pending,
		Submitted:   wp.submitted.Count(),
		Completed:   wp.completed.Count(),
		Failed:      wp.failed.Count(),
		Rejected:    wp.rejected.Count(),
		MeanLatency: time.Duration(latency.Mean()),
		P99Latency:  time.Duration(latency.Percentile(0.99)),
		RatePerSec:  wp.completed.Rate1(),
	}
}

// Registry exposes the pool's go-metrics registry (e.g. for periodic logging)
func (wp *WorkerPool) Registry() gometrics.Registry {
	return wp.registry
}

// String returns a one line summary of the pool's stats
func (s Stats) String() string {
	return fmt.Sprintf("workers=%d pending=%d submitted=%d completed=%d failed=%d rejected=%d mean=%s p99=%s",
		s.Workers, s.Pending, s.Submitted, s.Completed, s.Failed, s.Rejected, s.MeanLatency, s.P99Latency)
}

// worker processes tasks from its queue until the queue is closed and drained
func (wp *WorkerPool) worker(id int, q *queue.Pump[Task]) {
	defer wp.wg.Done()

	for task := range q.Recv() {
		wp.run(id, *task)
	}
}

// run executes a single task and records its outcome
func (wp *WorkerPool) run(id int, task Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			wp.failed.Inc(1)
			Logger.Errorf("[%s-%d] task panicked: %v\n%s", wp.name, id, r, debug.Stack())
		}
		wp.latency.UpdateSince(start)
		wp.completed.Mark(1)
	}()

	if err := task(wp.ctx); err != nil {
		wp.failed.Inc(1)
		Logger.Warningf("[%s-%d] task failed: %v", wp.name, id, err)
	}
}
