// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package taskqueue runs fire-and-forget background jobs on a bounded pool
// of workers. Jobs are held in memory only and are lost on restart.
package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Errors returned by Enqueue.
var (
	ErrQueueFull  = errors.New("task queue is full")
	ErrNotRunning = errors.New("task queue is not running")
)

// Job is a unit of background work.
type Job struct {
	// Name identifies the job in logs.
	Name string
	Run  func(ctx context.Context) error
}

// Config holds queue configuration.
type Config struct {
	Workers   int           // Number of concurrent workers
	QueueSize int           // Buffered jobs before Enqueue rejects
	Timeout   time.Duration // Per-job deadline (0 = none)
}

// DefaultConfig returns default queue configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 100,
		Timeout:   2 * time.Minute,
	}
}

// Queue dispatches jobs to worker goroutines.
type Queue struct {
	logger  *slog.Logger
	jobs    chan Job
	workers int
	timeout time.Duration
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// New creates a stopped queue.
func New(logger *slog.Logger, cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		logger:  logger,
		jobs:    make(chan Job, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		done:    make(chan struct{}),
	}
}

// Start launches the workers. Jobs run with a context derived from ctx.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.logger.Info("starting task queue", "workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop stops accepting jobs, runs what is already buffered and waits for
// the workers to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.done)
	q.mu.Unlock()

	q.logger.Info("stopping task queue")
	q.wg.Wait()
	q.logger.Info("task queue stopped")
}

// Enqueue schedules job without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.running {
		return ErrNotRunning
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		q.logger.Warn("task queue full, dropping job", "job", job.Name)
		return ErrQueueFull
	}
}

// Pending returns the number of buffered jobs.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	q.logger.Debug("task worker started", "worker_id", id)

	for {
		select {
		case job := <-q.jobs:
			q.execute(ctx, job)
		case <-ctx.Done():
			q.logger.Debug("task worker context cancelled", "worker_id", id)
			return
		case <-q.done:
			q.drain(ctx)
			q.logger.Debug("task worker stopping", "worker_id", id)
			return
		}
	}
}

// drain runs jobs left in the buffer after Stop.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case job := <-q.jobs:
			q.execute(ctx, job)
		default:
			return
		}
	}
}

// execute runs one job. Errors and panics are logged, never propagated.
func (q *Queue) execute(ctx context.Context, job Job) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	err := runJob(ctx, job)
	if err != nil {
		q.logger.Error("background job failed", "job", job.Name, "error", err,
			"duration", time.Since(start))
		return
	}
	q.logger.Debug("background job finished", "job", job.Name, "duration", time.Since(start))
}

func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	if job.Run == nil {
		return errors.New("job has no Run function")
	}
	return job.Run(ctx)
}
