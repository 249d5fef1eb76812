// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePublisher struct {
	n   int64
	err error
}

func (f fakePublisher) PublishDue(context.Context) (int64, error) { return f.n, f.err }

type fakeRetrier struct{ calls int }

func (f *fakeRetrier) RetryFailed(context.Context) (int, error) {
	f.calls++
	return 2, nil
}

type fakePruner struct{ olderThan time.Duration }

func (f *fakePruner) DeleteOldEvents(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 5, nil
}

type fakeReloader struct{ err error }

func (f fakeReloader) Reload() error { return f.err }

func TestPublishWhitepapersJob(t *testing.T) {
	job := PublishWhitepapersJob("* * * * *", fakePublisher{n: 3}, testLogger())
	if job.Name != JobPublishWhitepapers {
		t.Errorf("Name = %q", job.Name)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}

	failing := PublishWhitepapersJob("* * * * *", fakePublisher{err: errors.New("locked")}, testLogger())
	if err := failing.Run(context.Background()); err == nil {
		t.Error("Run() swallowed the publisher error")
	}
}

func TestRetryEmailsJob(t *testing.T) {
	r := &fakeRetrier{}
	job := RetryEmailsJob("*/5 * * * *", r, testLogger())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if r.calls != 1 {
		t.Errorf("RetryFailed calls = %d", r.calls)
	}
}

func TestPruneEventsJob(t *testing.T) {
	p := &fakePruner{}
	job := PruneEventsJob("@daily", 90*24*time.Hour, p, testLogger())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if p.olderThan != 90*24*time.Hour {
		t.Errorf("olderThan = %v", p.olderThan)
	}

	if job := PruneEventsJob("@daily", 0, p, testLogger()); job.Schedule != "" {
		t.Errorf("zero retention should disable the job, schedule = %q", job.Schedule)
	}
}

func TestReloadGeoIPJob(t *testing.T) {
	if err := ReloadGeoIPJob("@weekly", fakeReloader{}).Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	want := errors.New("corrupt")
	if err := ReloadGeoIPJob("@weekly", fakeReloader{err: want}).Run(context.Background()); !errors.Is(err, want) {
		t.Errorf("Run() error = %v", err)
	}
}
