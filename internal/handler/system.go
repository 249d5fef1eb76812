// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/scheduler"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/store"
)

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	Jobs() []scheduler.JobInfo
	Trigger(ctx context.Context, name string) error
}

// SystemHandler serves the dashboard, event log and job endpoints.
type SystemHandler struct {
	dashboard *service.DashboardService
	events    *service.EventService
	jobs      JobRunner
	logger    *slog.Logger
}

// NewSystemHandler creates a SystemHandler. jobs may be nil when the
// scheduler is not running.
func NewSystemHandler(dashboard *service.DashboardService, events *service.EventService, jobs JobRunner,
	logger *slog.Logger) *SystemHandler {
	return &SystemHandler{dashboard: dashboard, events: events, jobs: jobs, logger: logger}
}

// Dashboard handles GET /dashboard.
func (h *SystemHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, d, nil)
}

// Events handles GET /events, filtered by level and category.
func (h *SystemHandler) Events(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	q := r.URL.Query()
	page, err := h.events.ListEvents(r.Context(), store.EventFilter{
		Level:    q.Get("level"),
		Category: q.Get("category"),
		Limit:    p.Limit(),
		Offset:   p.Offset(),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, page.Events, p.Meta(page.Total))
}

// Jobs handles GET /jobs.
func (h *SystemHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeSuccess(w, []scheduler.JobInfo{}, nil)
		return
	}
	writeSuccess(w, h.jobs.Jobs(), nil)
}

// RunJob handles POST /jobs/{name}/run. The job runs inline.
func (h *SystemHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Job not found", nil)
		return
	}
	err := h.jobs.Trigger(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "Job not found", nil)
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "manual job run failed", "job", name, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Job failed: "+err.Error(), nil)
		return
	}
	h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategorySystem, "Job triggered manually",
		middleware.GetUserID(r), middleware.ClientIP(r), map[string]any{"job": name})
	writeSuccess(w, map[string]string{"job": name}, nil)
}
