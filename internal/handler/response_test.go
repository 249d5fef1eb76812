// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/testutil"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrValidation, http.StatusUnprocessableEntity, CodeValidation},
		{fmt.Errorf("wrapped: %w", service.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{service.ErrConflict, http.StatusConflict, CodeConflict},
		{service.ErrInvalidState, http.StatusConflict, CodeInvalidState},
		{service.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{service.ErrIntegration, http.StatusBadGateway, CodeIntegration},
		{errors.New("disk I/O error"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWriteServiceError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/blogs", nil)

	writeServiceError(rec, req, testutil.TestLoggerSilent(), errors.New("database is locked: /var/lib/leaddesk.db"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, msgInternal, env.Error)
	assert.NotContains(t, rec.Body.String(), "leaddesk.db")
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, DefaultPerPage, 0},
		{"page=3&perPage=10", 3, 10, 20},
		{"page=2&limit=5", 2, 5, 5},
		{"perPage=1000", 1, MaxPerPage, 0},
		{"page=-1&perPage=abc", 1, DefaultPerPage, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := parsePage(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.Limit())
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestPageMeta(t *testing.T) {
	m := pageParams{Page: 2, PerPage: 20}.Meta(41)
	assert.Equal(t, &Meta{Total: 41, Page: 2, PerPage: 20, Pages: 3}, m)

	assert.Equal(t, 0, pageParams{Page: 1, PerPage: 20}.Meta(0).Pages)
}

func TestDateRange(t *testing.T) {
	from, to, err := dateRange(url.Values{"dateFrom": {"2026-03-01"}, "dateTo": {"2026-03-31"}})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T00:00:00Z", from.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, 31, to.Day())
	assert.Equal(t, 23, to.Hour())

	from, to, err = dateRange(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)

	_, _, err = dateRange(url.Values{"dateTo": {"31/03/2026"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dateTo")
}

func TestDecodeJSON_Errors(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) {
		var v map[string]any
		if decodeJSON(w, r, &v) {
			writeSuccess(w, v, nil)
		}
	}

	rec := call(t, http.MethodPost, "/", "/", h, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body is required", decode(t, rec).Error)

	rec = call(t, http.MethodPost, "/", "/", h, "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decode(t, rec).Error)
}
