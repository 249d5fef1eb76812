// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/email"
	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/session"
	"github.com/olegiv/leaddesk/internal/taskqueue"
)

// envelope is the decoded form of both success and error responses.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Meta    *Meta             `json:"meta"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

var adminClaims = &session.Claims{UserID: "u-admin", Email: "admin@example.com", Role: model.RoleAdmin}

// call routes one request through a router holding only pattern, with
// claims in the context when non-nil.
func call(t *testing.T, method, pattern, target string, h http.HandlerFunc, body any, claims *session.Claims) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, "body: %s", rec.Body.String())
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// discardQueue accepts jobs without running them.
type discardQueue struct{ jobs []taskqueue.Job }

func (q *discardQueue) Enqueue(job taskqueue.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

// nopMailer fails every send.
type nopMailer struct{}

func (nopMailer) SendResourceEmail(context.Context, email.ResourceEmail) (email.Result, error) {
	return email.Result{}, email.ErrNotConfigured
}

// nopEvents discards audit events.
type nopEvents struct{}

func (nopEvents) LogEvent(context.Context, string, string, string, string, string, map[string]any) {}
