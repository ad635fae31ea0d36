// Package worker provides an asynchronous worker pool for running memory
// capture off the API's HTTP hot path. A turn is acknowledged as soon as it
// is queued; extraction, reconciliation, and storage happen in the
// background.
//
// The pool defaults to a single worker so that captures are applied strictly
// in submission order. A later turn may depend on mutations made for an
// earlier one.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/memory"
)

var (
	defaultNumWorkers   uint = 1
	defaultJobQueueSize uint = 256
)

// Capturer is the subset of the memory manager the pool drives.
type Capturer interface {
	Capture(ctx context.Context, messages []memory.Message) memory.Stats
}

// Job is one conversation turn awaiting capture.
type Job struct {
	Messages []memory.Message
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Capturer runs the capture pipeline for each job. Required.
	Capturer Capturer

	// NumWorkers is the number of background workers in the pool.
	// Values above 1 give up strict capture ordering across turns.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes capture jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Capturer == nil {
		return nil, fmt.Errorf("capturer is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a turn for capture by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("capture queued",
			zap.Int("messages", len(job.Messages)),
		)
		return true
	default:
		p.logger.Error("capture not queued, queue full, turn dropped",
			zap.Int("messages", len(job.Messages)),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight captures to drain.
// Call this during graceful shutdown after the API HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("capture worker stopped", zap.Uint("worker_id", id))
}

// processJob runs the capture pipeline for one turn and logs the outcome.
// Capture never returns an error; failures inside the pipeline degrade to a
// partial or empty Stats.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	stats := p.config.Capturer.Capture(ctx, job.Messages)
	if stats.Total() == 0 {
		p.logger.Debug("capture produced no changes",
			zap.Int("messages", len(job.Messages)),
		)
		return
	}

	p.logger.Info("turn captured",
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("deleted", stats.Deleted),
		zap.Int("unchanged", stats.None),
	)
}
