// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/store"
)

// DownloadHandler serves the lead (download) admin API.
type DownloadHandler struct {
	downloads *service.DownloadService
	logger    *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler.
func NewDownloadHandler(downloads *service.DownloadService, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{downloads: downloads, logger: logger}
}

func downloadFilter(w http.ResponseWriter, r *http.Request, p pageParams) (store.DownloadFilter, bool) {
	q := r.URL.Query()
	from, to, err := dateRange(q)
	if err != nil {
		writeBadRequest(w, err.Error())
		return store.DownloadFilter{}, false
	}
	return store.DownloadFilter{
		ResourceType:   q.Get("resourceType"),
		ResourceID:     q.Get("resourceId"),
		EmailStatus:    q.Get("emailStatus"),
		FollowUpStatus: q.Get("followUpStatus"),
		Search:         q.Get("search"),
		DateFrom:       from,
		DateTo:         to,
		Limit:          p.Limit(),
		Offset:         p.Offset(),
	}, true
}

// List handles GET /downloads.
func (h *DownloadHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	f, ok := downloadFilter(w, r, p)
	if !ok {
		return
	}
	page, err := h.downloads.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, page.Items, p.Meta(page.Total))
}

// Stats handles GET /downloads/stats.
func (h *DownloadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.downloads.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, stats, nil)
}

// Export handles GET /downloads/export. It accepts the list filters and
// ignores pagination.
func (h *DownloadHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, ok := downloadFilter(w, r, parsePage(r))
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.downloads.ExportCSV(r.Context(), &buf, f); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.downloads.ExportFilename()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Get handles GET /downloads/{id}.
func (h *DownloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	getEntity(h.logger, h.downloads.Get)(w, r)
}

// Create handles POST /downloads, a manually entered lead. No email is sent.
func (h *DownloadHandler) Create(w http.ResponseWriter, r *http.Request) {
	createEntity(h.logger, func(r *http.Request, in service.DownloadInput) (any, error) {
		return h.downloads.Create(r.Context(), in)
	})(w, r)
}

// UpdateFollowUp handles PUT /downloads/{id}/follow-up.
func (h *DownloadHandler) UpdateFollowUp(w http.ResponseWriter, r *http.Request) {
	updateEntity(h.logger, h.downloads.UpdateFollowUp)(w, r)
}

// RetryEmail handles POST /downloads/{id}/retry-email. Delivery runs inline.
func (h *DownloadHandler) RetryEmail(w http.ResponseWriter, r *http.Request) {
	res, err := h.downloads.RetryEmail(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, res, nil)
}

// Delete handles DELETE /downloads/{id}.
func (h *DownloadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleteEntity(h.logger, h.downloads.Delete)(w, r)
}

// EmailLogs handles GET /email-logs.
func (h *DownloadHandler) EmailLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := h.downloads.EmailLogs(r.Context(), store.EmailLogFilter{
		DownloadID: q.Get("downloadId"),
		Status:     q.Get("status"),
		Limit:      parsePage(r).Limit(),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, logs, nil)
}
