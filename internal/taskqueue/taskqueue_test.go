// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package taskqueue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueue_RunsJobs(t *testing.T) {
	q := New(testLogger(), Config{Workers: 2, QueueSize: 10})
	q.Start(context.Background())

	var wg sync.WaitGroup
	var count atomic.Int32
	for range 5 {
		wg.Add(1)
		err := q.Enqueue(Job{Name: "count", Run: func(context.Context) error {
			defer wg.Done()
			count.Add(1)
			return nil
		}})
		if err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	wg.Wait()
	q.Stop()

	if got := count.Load(); got != 5 {
		t.Errorf("ran %d jobs, want 5", got)
	}
}

func TestQueue_EnqueueBeforeStart(t *testing.T) {
	q := New(testLogger(), Config{Workers: 1, QueueSize: 1})
	err := q.Enqueue(Job{Name: "noop", Run: func(context.Context) error { return nil }})
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("Enqueue() error = %v, want ErrNotRunning", err)
	}
}

func TestQueue_Full(t *testing.T) {
	q := New(testLogger(), Config{Workers: 1, QueueSize: 1})
	q.Start(context.Background())
	defer q.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	block := Job{Name: "block", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}
	if err := q.Enqueue(block); err != nil {
		t.Fatalf("Enqueue(block) error = %v", err)
	}
	<-started

	noop := Job{Name: "noop", Run: func(context.Context) error { return nil }}
	if err := q.Enqueue(noop); err != nil {
		t.Fatalf("Enqueue() into free slot error = %v", err)
	}
	if err := q.Enqueue(noop); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() error = %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestQueue_RecoversPanicsAndErrors(t *testing.T) {
	q := New(testLogger(), Config{Workers: 1, QueueSize: 10})
	q.Start(context.Background())

	done := make(chan struct{})
	_ = q.Enqueue(Job{Name: "panics", Run: func(context.Context) error { panic("boom") }})
	_ = q.Enqueue(Job{Name: "fails", Run: func(context.Context) error { return errors.New("nope") }})
	_ = q.Enqueue(Job{Name: "nil run"})
	_ = q.Enqueue(Job{Name: "after", Run: func(context.Context) error {
		close(done)
		return nil
	}})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive failing jobs")
	}
	q.Stop()
}

func TestQueue_StopDrainsBuffered(t *testing.T) {
	q := New(testLogger(), Config{Workers: 1, QueueSize: 10})

	var count atomic.Int32
	q.Start(context.Background())
	for range 3 {
		_ = q.Enqueue(Job{Name: "slow", Run: func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			count.Add(1)
			return nil
		}})
	}
	q.Stop()

	if got := count.Load(); got != 3 {
		t.Errorf("ran %d jobs before Stop returned, want 3", got)
	}
	if err := q.Enqueue(Job{Name: "late"}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Enqueue() after Stop error = %v, want ErrNotRunning", err)
	}
}

func TestQueue_JobTimeout(t *testing.T) {
	q := New(testLogger(), Config{Workers: 1, QueueSize: 1, Timeout: 20 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	result := make(chan error, 1)
	_ = q.Enqueue(Job{Name: "waits", Run: func(ctx context.Context) error {
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	}})

	select {
	case err := <-result:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("ctx.Err() = %v, want DeadlineExceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job deadline was not applied")
	}
}
