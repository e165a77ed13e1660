package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcastellanos/credifacil-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs queued and scheduled background jobs on a fixed pool of
// goroutines. Scheduled jobs (reconciliation sweeps, reminders, backups)
// run on their own tickers; queued jobs share the pool.
type Worker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	queue  chan Job

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// Stats is a point-in-time snapshot of worker activity
type Stats struct {
	ActiveJobs    int64 `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
}

// NewWorker creates a worker with numWorkers concurrent processors
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan Job, 100),
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to the queue. If the queue is full the job runs
// synchronously so it is never dropped.
func (w *Worker) Enqueue(job Job) {
	select {
	case w.queue <- job:
	default:
		logger.Warn("[Worker] Queue full, running job synchronously")
		w.run("inline", job)
	}
}

// EnqueueAsync runs a job in its own goroutine (fire-and-forget). Used for
// notification fan-out where queue ordering does not matter.
func (w *Worker) EnqueueAsync(job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run("async", job)
	}()
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after
// the interval, not at startup.
func (w *Worker) ScheduleEvery(interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("scheduler", job)
			}
		}
	}()
}

// ScheduleEveryImmediate runs a job once right away, then at fixed intervals.
// Used for jobs that must not wait a full interval after a restart.
func (w *Worker) ScheduleEveryImmediate(interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run("scheduler", job)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("scheduler", job)
			}
		}
	}()
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.run(fmt.Sprintf("worker %d", workerID), job)
		}
	}
}

func (w *Worker) run(source string, job Job) {
	w.active.Add(1)
	defer func() {
		w.active.Add(-1)
		w.completed.Add(1)
		if r := recover(); r != nil {
			w.failed.Add(1)
			logger.Error(fmt.Sprintf("[%s] Job panic: %v", source, r))
		}
	}()

	start := time.Now()
	if err := job(w.ctx); err != nil {
		w.failed.Add(1)
		logger.Error(fmt.Sprintf("[%s] Job error: %v", source, err))
		return
	}
	logger.Debug(fmt.Sprintf("[%s] Job completed in %v", source, time.Since(start)))
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.cancel()
	close(w.queue)
	w.wg.Wait()
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() Stats {
	return Stats{
		ActiveJobs:    w.active.Load(),
		CompletedJobs: w.completed.Load(),
		FailedJobs:    w.failed.Load(),
		QueueLength:   len(w.queue),
	}
}
