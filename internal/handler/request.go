// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/service"
)

// MaxBodyBytes limits JSON request bodies.
const MaxBodyBytes = 1 << 20

// Pagination defaults.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// decodeJSON reads the request body into v. It writes a 400 response and
// returns false when the body is missing or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			writeBadRequest(w, "Request body is required")
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "Request body too large", nil)
		default:
			writeBadRequest(w, "Invalid JSON body")
		}
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decodeJSON(w, r, v)
}

// pageParams holds the parsed page and perPage query parameters.
type pageParams struct {
	Page    int
	PerPage int
}

func (p pageParams) Limit() int  { return p.PerPage }
func (p pageParams) Offset() int { return (p.Page - 1) * p.PerPage }

// Meta builds the pagination metadata for total items.
func (p pageParams) Meta(total int64) *Meta {
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return &Meta{Total: total, Page: p.Page, PerPage: p.PerPage, Pages: pages}
}

// parsePage reads page and perPage (alias limit) from the query string.
func parsePage(r *http.Request) pageParams {
	q := r.URL.Query()
	p := pageParams{Page: 1, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	perPage := q.Get("perPage")
	if perPage == "" {
		perPage = q.Get("limit")
	}
	if n, err := strconv.Atoi(perPage); err == nil && n > 0 {
		p.PerPage = min(n, MaxPerPage)
	}
	return p
}

// dateRange parses dateFrom and dateTo. Plain dates cover the whole day.
func dateRange(q url.Values) (from, to *time.Time, err error) {
	if from, err = parseDate(q.Get("dateFrom"), false); err != nil {
		return nil, nil, fmt.Errorf("dateFrom: %w", err)
	}
	if to, err = parseDate(q.Get("dateTo"), true); err != nil {
		return nil, nil, fmt.Errorf("dateTo: %w", err)
	}
	return from, to, nil
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, errors.New("expected YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parseBool returns nil for an absent or unparseable flag.
func parseBool(s string) *bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// requestMeta describes the client of r for lead and payment records.
func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}

// actor returns the signed-in user of an admin request.
func actor(r *http.Request) service.Actor {
	return service.Actor{
		UserID: middleware.GetUserID(r),
		Email:  middleware.GetUserEmail(r),
	}
}

func idParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
