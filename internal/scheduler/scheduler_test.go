// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegister_InvalidSchedule(t *testing.T) {
	s := New(testLogger())
	err := s.Register(Job{Name: "bad", Schedule: "every tuesday", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("Register() accepted an invalid schedule")
	}
	if len(s.Jobs()) != 0 {
		t.Errorf("Jobs() = %d, want 0", len(s.Jobs()))
	}
}

func TestRegister_EmptyScheduleDisables(t *testing.T) {
	s := New(testLogger())
	if err := s.Register(Job{Name: "off", Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(s.Jobs()) != 0 {
		t.Errorf("disabled job was registered")
	}
}

func TestJobs_SortedWithNextRun(t *testing.T) {
	s := New(testLogger())
	noop := func(context.Context) error { return nil }
	for _, name := range []string{"b-job", "a-job"} {
		if err := s.Register(Job{Name: name, Schedule: "@hourly", Run: noop}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	s.Start()
	defer s.Stop(context.Background())

	jobs := s.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("Jobs() = %d, want 2", len(jobs))
	}
	if jobs[0].Name != "a-job" || jobs[1].Name != "b-job" {
		t.Errorf("Jobs() order = %s, %s", jobs[0].Name, jobs[1].Name)
	}
	if jobs[0].NextRun.IsZero() {
		t.Error("NextRun not set after Start")
	}
}

func TestRegister_ReplacesSameName(t *testing.T) {
	s := New(testLogger())
	noop := func(context.Context) error { return nil }
	_ = s.Register(Job{Name: "dup", Schedule: "@hourly", Run: noop})
	_ = s.Register(Job{Name: "dup", Schedule: "@daily", Run: noop})

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].Schedule != "@daily" {
		t.Fatalf("Jobs() = %+v", jobs)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("cron entries = %d, want 1", n)
	}
}

func TestTrigger(t *testing.T) {
	s := New(testLogger())
	runs := 0
	boom := errors.New("boom")
	_ = s.Register(Job{Name: "count", Schedule: "@daily", Run: func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("job context has no deadline")
		}
		runs++
		if runs == 2 {
			return boom
		}
		return nil
	}})

	if err := s.Trigger(context.Background(), "count"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if jobs := s.Jobs(); jobs[0].LastRun.IsZero() || jobs[0].LastError != "" {
		t.Errorf("after success: %+v", jobs[0])
	}

	if err := s.Trigger(context.Background(), "count"); !errors.Is(err, boom) {
		t.Fatalf("Trigger() error = %v, want boom", err)
	}
	if jobs := s.Jobs(); jobs[0].LastError != "boom" {
		t.Errorf("LastError = %q", jobs[0].LastError)
	}

	if err := s.Trigger(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Trigger(missing) error = %v", err)
	}
}

func TestStartStop(t *testing.T) {
	s := New(testLogger())
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
