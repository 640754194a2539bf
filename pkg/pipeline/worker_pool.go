package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/testbridge/pkg/extract"
	"github.com/gnana997/testbridge/pkg/util"
)

// FileJob is one source file queued for per-file extraction.
type FileJob struct {
	FilePath string
	Language string
	JobID    int
}

// FileOutcome carries a finished extraction back to the joiner.
type FileOutcome struct {
	FilePath string
	Result   *extract.FileResult
	JobID    int
}

// FileError carries a failed extraction back to the joiner.
type FileError struct {
	FilePath string
	Err      error
	JobID    int
}

// processFunc is the per-file work: parse then extract.
type processFunc func(path, language string) (*extract.FileResult, error)

// WorkerPool runs per-file pipeline stages on a pool of goroutines.
//
// Stages A–E are pure per tree, so files can be processed in any order and
// in parallel; the joiner re-orders results by JobID before the
// single-threaded build stage.
//
// Usage:
//
//	pool := NewWorkerPool(0, process, logger)
//	pool.Start()
//	for i, f := range files {
//	    pool.Submit(FileJob{FilePath: f, JobID: i})
//	}
//	pool.FinishSubmitting()
//	// drain pool.Results() / pool.Errors(), then
//	pool.Stop()
type WorkerPool struct {
	numWorkers int
	process    processFunc
	jobs       chan FileJob
	results    chan FileOutcome
	errors     chan FileError
	wg         sync.WaitGroup
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a pool. numWorkers 0 selects the optimal size for
// the machine.
func NewWorkerPool(numWorkers int, process processFunc, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	numWorkers = util.GetOptimalPoolSizeWithOverride(numWorkers)

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		numWorkers: numWorkers,
		process:    process,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileOutcome, numWorkers),
		errors:     make(chan FileError, numWorkers),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the worker goroutines. Must be called before Submit.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}
	wp.logger.Debug("starting worker pool", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job FileJob) {
	wp.logger.Debug("processing file", "worker", workerID, "file", job.FilePath)

	result, err := wp.process(job.FilePath, job.Language)
	if err != nil {
		wp.jobsFailed.Add(1)
		wp.errors <- FileError{FilePath: job.FilePath, Err: err, JobID: job.JobID}
		return
	}

	wp.jobsProcessed.Add(1)
	wp.results <- FileOutcome{FilePath: job.FilePath, Result: result, JobID: job.JobID}
}

// Submit enqueues a job. Blocks when the queue is full.
func (wp *WorkerPool) Submit(job FileJob) {
	select {
	case <-wp.ctx.Done():
	case wp.jobs <- job:
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan FileOutcome {
	return wp.results
}

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the jobs channel so workers exit once the queue
// drains. Idempotent.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Stop shuts the pool down: no new jobs, wait for in-flight work, release
// workers. Idempotent.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	wp.FinishSubmitting()
	wp.wg.Wait()
	wp.cancel()

	wp.logger.Debug("worker pool stopped",
		"processed", wp.jobsProcessed.Load(),
		"failed", wp.jobsFailed.Load())
}
