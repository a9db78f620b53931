package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alucardeht/wayleave/internal/registry"
)

var (
	ErrQueueFull  = errors.New("job queue full")
	ErrNotRunning = errors.New("worker not running")
)

type JobPriority int

const (
	PriorityLow JobPriority = iota
	PriorityNormal
	PriorityHigh
)

func (p JobPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

type Job struct {
	Path     string
	Priority JobPriority
}

// Handler is what the worker pool runs for each job. *Processor is one.
type Handler interface {
	Process(ctx context.Context, path string) (Outcome, error)
}

type WorkerConfig struct {
	WorkerCount  int
	MaxQueueSize int
	RateLimit    int
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		WorkerCount:  2,
		MaxQueueSize: 1000,
	}
}

type WorkerStats struct {
	Generated     int64     `json:"generated"`
	Failed        int64     `json:"failed"`
	Skipped       int64     `json:"skipped"`
	Errors        int64     `json:"errors"`
	InQueue       int64     `json:"in_queue"`
	IsRunning     bool      `json:"is_running"`
	StartedAt     time.Time `json:"started_at"`
	LastProcessed time.Time `json:"last_processed"`
}

type Worker struct {
	handler Handler
	config  WorkerConfig

	highQueue   chan Job
	normalQueue chan Job
	lowQueue    chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rateLimiter *time.Ticker

	running atomic.Bool
	inQueue atomic.Int64

	stats   WorkerStats
	statsMu sync.RWMutex
}

func NewWorker(handler Handler, config WorkerConfig) *Worker {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.MaxQueueSize < 1 {
		config.MaxQueueSize = DefaultWorkerConfig().MaxQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		handler:     handler,
		config:      config,
		highQueue:   make(chan Job, 100),
		normalQueue: make(chan Job, config.MaxQueueSize),
		lowQueue:    make(chan Job, config.MaxQueueSize*2),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (w *Worker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}

	w.statsMu.Lock()
	w.stats.StartedAt = time.Now()
	w.statsMu.Unlock()

	if w.config.RateLimit > 0 {
		w.rateLimiter = time.NewTicker(time.Second / time.Duration(w.config.RateLimit))
	}

	log.Info("batch worker started", "workers", w.config.WorkerCount)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
}

// Stop waits for in-flight jobs. Jobs still queued are dropped; the next
// scheduled rescan picks their files up again.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}

	log.Info("batch worker stopping")

	w.cancel()
	w.wg.Wait()
	if w.rateLimiter != nil {
		w.rateLimiter.Stop()
	}

	if n := w.inQueue.Load(); n > 0 {
		log.Warn("dropped queued jobs", "count", n)
	}
	log.Info("batch worker stopped")
}

func (w *Worker) Enqueue(job Job) error {
	if w.ctx.Err() != nil {
		return ErrNotRunning
	}

	var queue chan Job
	switch job.Priority {
	case PriorityHigh:
		queue = w.highQueue
	case PriorityLow:
		queue = w.lowQueue
	default:
		queue = w.normalQueue
	}

	select {
	case queue <- job:
		w.inQueue.Add(1)
		return nil
	default:
		log.Warn("job enqueue failed - queue full", "path", job.Path, "priority", job.Priority)
		return ErrQueueFull
	}
}

func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.InQueue = w.inQueue.Load()
	stats.IsRunning = w.running.Load()
	return stats
}

func (w *Worker) worker(id int) {
	defer w.wg.Done()

	for {
		if w.rateLimiter != nil {
			select {
			case <-w.rateLimiter.C:
			case <-w.ctx.Done():
				return
			}
		}

		job, ok := w.next()
		if !ok {
			return
		}

		w.inQueue.Add(-1)
		log.Debug("worker processing job", "worker_id", id, "path", job.Path)
		w.processJob(job)
	}
}

// next prefers high over normal over low priority jobs and blocks until a
// job arrives or the worker stops.
func (w *Worker) next() (Job, bool) {
	if w.ctx.Err() != nil {
		return Job{}, false
	}

	select {
	case job := <-w.highQueue:
		return job, true
	default:
	}

	select {
	case job := <-w.highQueue:
		return job, true
	case job := <-w.normalQueue:
		return job, true
	default:
	}

	select {
	case job := <-w.highQueue:
		return job, true
	case job := <-w.normalQueue:
		return job, true
	case job := <-w.lowQueue:
		return job, true
	case <-w.ctx.Done():
		return Job{}, false
	}
}

func (w *Worker) processJob(job Job) {
	out, err := w.handler.Process(w.ctx, job.Path)

	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	w.stats.LastProcessed = time.Now()
	if err != nil {
		w.stats.Errors++
		if !errors.Is(err, context.Canceled) {
			log.Warn("job failed", "path", job.Path, "error", err)
		}
		return
	}

	switch out.Status {
	case registry.StatusGenerated:
		w.stats.Generated++
	case registry.StatusFailed:
		w.stats.Failed++
	case registry.StatusSkipped:
		w.stats.Skipped++
	}
}
