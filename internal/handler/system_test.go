// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/scheduler"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/testutil"
)

type fakeJobs struct {
	triggered []string
	err       error
}

func (f *fakeJobs) Jobs() []scheduler.JobInfo {
	return []scheduler.JobInfo{{Name: scheduler.JobPublishWhitepapers, Schedule: "* * * * *"}}
}

func (f *fakeJobs) Trigger(_ context.Context, name string) error {
	if name != scheduler.JobPublishWhitepapers {
		return fmt.Errorf("%w: %s", scheduler.ErrJobNotFound, name)
	}
	f.triggered = append(f.triggered, name)
	return f.err
}

func newSystemHandler(t *testing.T, jobs JobRunner) (*SystemHandler, *service.EventService) {
	t.Helper()
	db := testutil.TestMemoryDB(t)
	events := service.NewEventService(db)
	return NewSystemHandler(service.NewDashboardService(db), events, jobs, testutil.TestLoggerSilent()), events
}

func TestSystemHandler_Dashboard(t *testing.T) {
	h, _ := newSystemHandler(t, nil)

	rec := call(t, http.MethodGet, "/dashboard", "/dashboard", h.Dashboard, nil, adminClaims)

	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeData[service.Dashboard](t, rec)
	assert.Zero(t, d.Downloads)
	assert.Zero(t, d.Revenue)
}

func TestSystemHandler_EventsFiltered(t *testing.T) {
	h, events := newSystemHandler(t, nil)
	ctx := context.Background()
	events.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryAuth, "User logged in", "u1", "", nil)
	events.LogEvent(ctx, model.EventLevelWarning, model.EventCategoryAuth, "Failed login attempt", "", "", nil)
	events.LogEvent(ctx, model.EventLevelError, model.EventCategoryEmail, "delivery failed", "", "", nil)

	rec := call(t, http.MethodGet, "/events", "/events?category=auth", h.Events, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]model.Event](t, rec), 2)
	assert.Equal(t, int64(2), decode(t, rec).Meta.Total)

	rec = call(t, http.MethodGet, "/events", "/events?level=error", h.Events, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData[[]model.Event](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "delivery failed", got[0].Message)
}

func TestSystemHandler_Jobs(t *testing.T) {
	jobs := &fakeJobs{}
	h, _ := newSystemHandler(t, jobs)

	rec := call(t, http.MethodGet, "/jobs", "/jobs", h.Jobs, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]scheduler.JobInfo](t, rec), 1)

	rec = call(t, http.MethodPost, "/jobs/{name}/run", "/jobs/publish-whitepapers/run", h.RunJob, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{scheduler.JobPublishWhitepapers}, jobs.triggered)

	rec = call(t, http.MethodPost, "/jobs/{name}/run", "/jobs/defrag/run", h.RunJob, nil, adminClaims)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	jobs.err = errors.New("database is locked")
	rec = call(t, http.MethodPost, "/jobs/{name}/run", "/jobs/publish-whitepapers/run", h.RunJob, nil, adminClaims)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSystemHandler_NoScheduler(t *testing.T) {
	h, _ := newSystemHandler(t, nil)

	rec := call(t, http.MethodGet, "/jobs", "/jobs", h.Jobs, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]scheduler.JobInfo](t, rec))

	rec = call(t, http.MethodPost, "/jobs/{name}/run", "/jobs/prune-events/run", h.RunJob, nil, adminClaims)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
