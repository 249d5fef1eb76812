// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fakeClock is a settable time source for lockout tests.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLoginProtection(t *testing.T, cfg LoginProtectionConfig) (*LoginProtection, *fakeClock) {
	t.Helper()
	lp := NewLoginProtection(cfg)
	t.Cleanup(lp.Close)
	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	lp.now = clock.now
	return lp, clock
}

func TestLoginProtectionConfigDefaults(t *testing.T) {
	var cfg LoginProtectionConfig
	cfg.applyDefaults()

	if cfg.IPRateLimit != 0.5 || cfg.IPBurst != 5 {
		t.Errorf("IP limit = %v/%d, want 0.5/5", cfg.IPRateLimit, cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute || cfg.AttemptWindow != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, AttemptWindow = %v", cfg.LockoutDuration, cfg.AttemptWindow)
	}
	if cfg.Logger == nil {
		t.Error("Logger should default to slog.Default()")
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		strikes int
		want    time.Duration
	}{
		{0, 15 * time.Minute},
		{1, 30 * time.Minute},
		{3, 2 * time.Hour},
		{7, 24 * time.Hour},
		{40, 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := backoff(15*time.Minute, tt.strikes); got != tt.want {
			t.Errorf("backoff(15m, %d) = %v, want %v", tt.strikes, got, tt.want)
		}
	}
}

func TestLoginProtectionLocksAfterMaxAttempts(t *testing.T) {
	lp, clock := newTestLoginProtection(t, LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Hour,
	})
	const email = "editor@example.com"

	for i := range 2 {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("locked after %d attempts", i+1)
		}
	}
	locked, d := lp.RecordFailedAttempt(email)
	if !locked || d != time.Minute {
		t.Fatalf("third attempt: locked = %v, duration = %v", locked, d)
	}
	if locked, remaining := lp.IsAccountLocked(email); !locked || remaining != time.Minute {
		t.Errorf("IsAccountLocked = %v, %v", locked, remaining)
	}

	clock.advance(time.Minute)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("lock should expire")
	}
}

func TestLoginProtectionRepeatedLockoutDoubles(t *testing.T) {
	lp, clock := newTestLoginProtection(t, LoginProtectionConfig{
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Hour,
	})
	const email = "editor@example.com"

	lp.RecordFailedAttempt(email)
	_, first := lp.RecordFailedAttempt(email)
	clock.advance(first)
	lp.RecordFailedAttempt(email)
	_, second := lp.RecordFailedAttempt(email)

	if first != time.Minute || second != 2*time.Minute {
		t.Errorf("lockouts = %v, %v; want 1m, 2m", first, second)
	}
}

func TestLoginProtectionWindowResets(t *testing.T) {
	lp, clock := newTestLoginProtection(t, LoginProtectionConfig{
		MaxFailedAttempts: 2,
		AttemptWindow:     time.Minute,
	})
	const email = "editor@example.com"

	lp.RecordFailedAttempt(email)
	clock.advance(2 * time.Minute)
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("a failure outside the window should start a new count")
	}
}

func TestLoginProtectionSuccessClearsHistory(t *testing.T) {
	lp, _ := newTestLoginProtection(t, LoginProtectionConfig{MaxFailedAttempts: 2})
	const email = "editor@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("successful login should reset the failure count")
	}
}

func TestLoginProtectionEmailCaseInsensitive(t *testing.T) {
	lp, _ := newTestLoginProtection(t, LoginProtectionConfig{MaxFailedAttempts: 2})

	lp.RecordFailedAttempt("Admin@Example.com")
	locked, _ := lp.RecordFailedAttempt("admin@example.com ")
	if !locked {
		t.Fatal("attempts with different casing should count towards the same account")
	}
	if locked, _ := lp.IsAccountLocked("ADMIN@example.com"); !locked {
		t.Error("IsAccountLocked should ignore case")
	}
}

func TestLoginProtectionSweep(t *testing.T) {
	lp, clock := newTestLoginProtection(t, LoginProtectionConfig{
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	lp.RecordFailedAttempt("old@example.com")
	lp.RecordFailedAttempt("locked@example.com")
	lp.RecordFailedAttempt("locked@example.com")

	clock.advance(90 * time.Second)
	lp.RecordFailedAttempt("fresh@example.com")
	lp.sweep()

	lp.mu.Lock()
	defer lp.mu.Unlock()
	if _, ok := lp.accounts["old@example.com"]; ok {
		t.Error("stale history should be swept")
	}
	if _, ok := lp.accounts["locked@example.com"]; ok {
		t.Error("expired lockout should be swept")
	}
	if _, ok := lp.accounts["fresh@example.com"]; !ok {
		t.Error("fresh history should be kept")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"ipv4 with port", "192.168.1.1:12345", "192.168.1.1"},
		{"ipv6 with port", "[2001:db8::1]:443", "2001:db8::1"},
		{"bare address from RealIP", "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginProtectionMiddlewareRateLimited(t *testing.T) {
	lp, _ := newTestLoginProtection(t, LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 1})
	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		return rr
	}

	if rr := send("203.0.113.7:5000"); rr.Code != http.StatusOK {
		t.Fatalf("first request = %d", rr.Code)
	}
	rr := send("203.0.113.7:5001")
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q, want JSON", rr.Header().Get("Content-Type"))
	}
	if rr := send("198.51.100.9:5000"); rr.Code != http.StatusOK {
		t.Errorf("other IP = %d, want 200", rr.Code)
	}
}
