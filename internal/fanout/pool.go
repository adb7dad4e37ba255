// Package fanout runs independent collection runs for multiple accounts
// concurrently. Each worker handles one account at a time; within a run
// collection stays sequential, so concurrency never reorders the pages of
// any single account.
package fanout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tweetstats/pkg/collector"
	"tweetstats/pkg/logger"
	"tweetstats/pkg/stats"
)

// CollectJob is a single account to collect
type CollectJob struct {
	Username string
	Options  collector.Options
}

// CollectResult is the outcome of one account's collection run
type CollectResult struct {
	Job      CollectJob
	Snapshot *stats.Snapshot
	Success  bool
	Error    error
	Duration time.Duration
}

// AccountCollector runs a full collection for one account
type AccountCollector interface {
	CollectWithOptions(ctx context.Context, username string, opts collector.Options) (*stats.Snapshot, error)
}

// WorkerPool distributes account collection runs across workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan CollectJob
	resultQueue chan CollectResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	collector   AccountCollector
	logger      logger.Logger
}

// NewWorkerPool creates a collection worker pool. Cancelling the parent
// context cancels every in-flight collection run.
func NewWorkerPool(parent context.Context, numWorkers int, coll AccountCollector, log logger.Logger) *WorkerPool {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan CollectJob, numWorkers*2),
		resultQueue: make(chan CollectResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		collector:   coll,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting collection pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight runs and closes results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("collection pool stopped")
}

// Submit queues an account for collection
func (wp *WorkerPool) Submit(job CollectJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("collection pool is shutting down")
	}
}

// Results returns the channel of finished runs
func (wp *WorkerPool) Results() <-chan CollectResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job CollectJob, workerID int) CollectResult {
	start := time.Now()
	result := CollectResult{Job: job}

	wp.logger.DebugWithFields("worker collecting account", map[string]interface{}{
		"worker_id": workerID,
		"username":  job.Username,
	})

	snapshot, err := wp.collector.CollectWithOptions(wp.ctx, job.Username, job.Options)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err

		wp.logger.ErrorWithFields("account collection failed", map[string]interface{}{
			"worker_id": workerID,
			"username":  job.Username,
			"error":     err.Error(),
			"duration":  result.Duration,
		})

		return result
	}

	result.Snapshot = snapshot
	result.Success = true

	wp.logger.InfoWithFields("account collection completed", map[string]interface{}{
		"worker_id": workerID,
		"username":  job.Username,
		"metrics":   len(snapshot.Metrics),
		"duration":  result.Duration,
	})

	return result
}
