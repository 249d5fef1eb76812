// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrJobNotFound is returned when triggering an unknown job.
var ErrJobNotFound = errors.New("job not found")

// registeredJob holds a job and its last outcome.
type registeredJob struct {
	job       Job
	entryID   cron.EntryID
	lastRun   time.Time
	lastError string
	duration  time.Duration
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"lastRun,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
	Duration    string    `json:"lastDuration,omitempty"`
	NextRun     time.Time `json:"nextRun,omitzero"`
}

// Registry tracks registered jobs by name.
type Registry struct {
	cron *cron.Cron
	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

func newRegistry(c *cron.Cron) *Registry {
	return &Registry{cron: c, jobs: make(map[string]*registeredJob)}
}

func (r *Registry) add(job Job, id cron.EntryID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.jobs[job.Name]; ok {
		r.cron.Remove(old.entryID)
	}
	r.jobs[job.Name] = &registeredJob{job: job, entryID: id}
}

func (r *Registry) job(name string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rj, ok := r.jobs[name]
	if !ok {
		return Job{}, false
	}
	return rj.job, true
}

func (r *Registry) recordRun(name string, start time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rj, ok := r.jobs[name]
	if !ok {
		return
	}
	rj.lastRun = start
	rj.duration = time.Since(start)
	rj.lastError = ""
	if err != nil {
		rj.lastError = err.Error()
	}
}

// list returns all registered jobs sorted by name.
func (r *Registry) list() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, rj := range r.jobs {
		info := JobInfo{
			Name:        rj.job.Name,
			Description: rj.job.Description,
			Schedule:    rj.job.Schedule,
			LastRun:     rj.lastRun,
			LastError:   rj.lastError,
			NextRun:     r.cron.Entry(rj.entryID).Next,
		}
		if !rj.lastRun.IsZero() {
			info.Duration = rj.duration.Round(time.Millisecond).String()
		}
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
