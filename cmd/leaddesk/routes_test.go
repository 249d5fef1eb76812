// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/leaddesk/internal/cache"
	"github.com/olegiv/leaddesk/internal/email"
	"github.com/olegiv/leaddesk/internal/handler"
	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/payment"
	"github.com/olegiv/leaddesk/internal/scheduler"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/session"
	"github.com/olegiv/leaddesk/internal/store"
	"github.com/olegiv/leaddesk/internal/taskqueue"
	"github.com/olegiv/leaddesk/internal/testutil"
)

const testSecret = "routes-test-secret-0123456789abcdef"

func newTestRouter(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()
	db := testutil.TestMemoryDB(t)
	logger := testutil.TestLoggerSilent()

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	queue := taskqueue.New(logger, taskqueue.DefaultConfig())

	settings := service.NewSettingsService(db, c, time.Minute, logger)
	mailer := email.NewMailer(settings, store.New(db), logger)
	events := service.NewEventService(db)
	trainings := service.NewTrainingService(db)
	blogs := service.NewBlogService(db)
	whitepapers := service.NewWhitepaperService(db)
	downloads := service.NewDownloadService(db, mailer, queue, nil, settings, logger)
	payments := service.NewPaymentService(db, settings, payment.NewGateway, logger)
	sessions := session.NewManager(testSecret, false)

	r := newRouter(routerConfig{
		Sessions:        sessions,
		Events:          events,
		IsDev:           true,
		PublicRateLimit: 100,
		RequestTimeout:  5 * time.Second,
	}, handlers{
		Health:      handler.NewHealthHandler(db),
		Auth:        handler.NewAuthHandler(service.NewUserService(db), sessions, nil, events, logger),
		Public:      handler.NewPublicHandler(downloads, trainings, payments, "http://localhost:8080", logger),
		Blogs:       handler.NewBlogHandler(blogs, logger),
		Whitepapers: handler.NewWhitepaperHandler(whitepapers, logger),
		Trainings:   handler.NewTrainingHandler(trainings, logger),
		Speakers:    handler.NewSpeakerHandler(service.NewSpeakerService(db), logger),
		Downloads:   handler.NewDownloadHandler(downloads, logger),
		Payments:    handler.NewPaymentHandler(payments, logger),
		Settings:    handler.NewSettingsHandler(settings, mailer, events, logger),
		System:      handler.NewSystemHandler(service.NewDashboardService(db), events, scheduler.New(logger), logger),
		SEO:         handler.NewSEOHandler(blogs, trainings, whitepapers, "http://localhost:8080", false, logger),
	})
	return r, sessions
}

func sessionCookie(t *testing.T, sessions *session.Manager, role string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sessions.Create(rec, "u-1", role+"@example.com", role); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return rec.Result().Cookies()[0]
}

func serve(r http.Handler, method, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		method string
		target string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/login", http.StatusOK},
		{http.MethodGet, "/api/auth/session", http.StatusUnauthorized},
		{http.MethodGet, "/api/trainings/unknown", http.StatusNotFound},
		{http.MethodGet, "/training/payment/success", http.StatusUnprocessableEntity},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := serve(r, tt.method, tt.target, nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.status, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestRouter_CrawlerRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := serve(r, http.MethodGet, "/sitemap.xml", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<urlset") {
		t.Errorf("sitemap: status %d, body %s", rec.Code, rec.Body.String())
	}
	rec = serve(r, http.MethodGet, "/robots.txt", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("robots: status %d, Content-Type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestRouter_AdminRequiresSession(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := serve(r, http.MethodGet, "/admin/api/dashboard", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != middleware.LoginPath {
		t.Errorf("Location = %q, want %q", loc, middleware.LoginPath)
	}

	rec = serve(r, http.MethodGet, "/admin/api/dashboard", &http.Cookie{Name: session.CookieName, Value: "forged"})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("forged cookie: status = %d, want 303", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("invalid session cookie was not cleared")
	}
}

func TestRouter_AdminRoutesWithSession(t *testing.T) {
	r, sessions := newTestRouter(t)
	editor := sessionCookie(t, sessions, model.RoleEditor)

	for _, target := range []string{
		"/admin/api/dashboard",
		"/admin/api/blogs",
		"/admin/api/blogs/published",
		"/admin/api/whitepapers",
		"/admin/api/trainings",
		"/admin/api/speakers",
		"/admin/api/downloads",
		"/admin/api/downloads/stats",
		"/admin/api/downloads/export",
		"/admin/api/email-logs",
		"/admin/api/payments",
		"/admin/api/payments/stats",
		"/admin/api/events",
	} {
		rec := serve(r, http.MethodGet, target, editor)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, body %s", target, rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	r, sessions := newTestRouter(t)
	editor := sessionCookie(t, sessions, model.RoleEditor)
	admin := sessionCookie(t, sessions, model.RoleAdmin)

	for _, tt := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/admin/api/settings/email"},
		{http.MethodGet, "/admin/api/settings/payments"},
		{http.MethodGet, "/admin/api/jobs"},
		{http.MethodPost, "/admin/api/payments/p-1/refund"},
	} {
		rec := serve(r, tt.method, tt.target, editor)
		if rec.Code != http.StatusForbidden {
			t.Errorf("editor %s %s: status = %d, want 403", tt.method, tt.target, rec.Code)
		}
	}

	rec := serve(r, http.MethodGet, "/admin/api/settings/email", admin)
	if rec.Code != http.StatusOK {
		t.Errorf("admin settings: status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = serve(r, http.MethodPost, "/admin/api/payments/p-1/refund", admin)
	if rec.Code != http.StatusNotFound {
		t.Errorf("admin refund of unknown payment: status = %d, want 404", rec.Code)
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("debug").String() != "DEBUG" || parseLogLevel("bogus").String() != "INFO" {
		t.Error("unexpected log level mapping")
	}
}
