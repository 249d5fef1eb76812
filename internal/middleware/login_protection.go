// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// maxLockout caps the doubled lockout duration.
	maxLockout = 24 * time.Hour
	// maxTrackedIPs resets the per-IP limiters once exceeded.
	maxTrackedIPs   = 10000
	janitorInterval = 10 * time.Minute
)

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login requests per second per IP (default 0.5).
	IPRateLimit float64
	// IPBurst is the limiter burst (default 5).
	IPBurst int
	// MaxFailedAttempts locks the account once reached (default 5).
	MaxFailedAttempts int
	// LockoutDuration is the first lockout. Every further lockout of the same
	// account doubles it, up to a day (default 15m).
	LockoutDuration time.Duration
	// AttemptWindow is how long failures keep counting (default 15m).
	AttemptWindow time.Duration
	// Logger receives lockout and limit warnings (default slog.Default()).
	Logger *slog.Logger
}

func (c *LoginProtectionConfig) applyDefaults() {
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = 0.5
	}
	if c.IPBurst <= 0 {
		c.IPBurst = 5
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = 5
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = 15 * time.Minute
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = 15 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// lockout is the failure history of one admin account.
type lockout struct {
	failures    int
	windowStart time.Time
	until       time.Time
	strikes     int
}

func (l *lockout) stale(now time.Time, window time.Duration) bool {
	return !now.Before(l.until) && now.Sub(l.windowStart) > window
}

// backoff returns base doubled once per earlier strike, capped at maxLockout.
func backoff(base time.Duration, strikes int) time.Duration {
	d := base
	for range strikes {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return min(d, maxLockout)
}

// LoginProtection throttles login requests per client IP and locks admin
// accounts after repeated failed sign-ins.
type LoginProtection struct {
	cfg      LoginProtectionConfig
	ips      *limiterCache[string]
	mu       sync.Mutex
	accounts map[string]*lockout
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewLoginProtection creates a LoginProtection and starts its janitor.
// Call Close to stop it.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg.applyDefaults()
	lp := &LoginProtection{
		cfg:      cfg,
		ips:      newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts: make(map[string]*lockout),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go lp.janitor()
	return lp
}

// Close stops the janitor goroutine.
func (lp *LoginProtection) Close() {
	lp.stopOnce.Do(func() { close(lp.stop) })
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	l, ok := lp.accounts[accountKey(email)]
	if !ok {
		return false, 0
	}
	if remaining := l.until.Sub(lp.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordFailedAttempt counts a failed sign-in for email. It reports whether
// the account is now locked and for how long.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := accountKey(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	l, ok := lp.accounts[key]
	if !ok {
		l = &lockout{windowStart: now}
		lp.accounts[key] = l
	}
	if now.Sub(l.windowStart) > lp.cfg.AttemptWindow {
		l.failures = 0
		l.windowStart = now
	}
	l.failures++
	if l.failures < lp.cfg.MaxFailedAttempts {
		return false, 0
	}

	d := backoff(lp.cfg.LockoutDuration, l.strikes)
	l.until = now.Add(d)
	l.strikes++
	l.failures = 0
	lp.cfg.Logger.Warn("admin account locked after failed logins",
		"email", key, "strikes", l.strikes, "duration", d)
	return true, d
}

// RecordSuccessfulLogin forgets the failure history of email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, accountKey(email))
	lp.mu.Unlock()
}

func (lp *LoginProtection) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-lp.stop:
			return
		case <-ticker.C:
			lp.sweep()
		}
	}
}

// sweep drops expired account histories and resets an oversized IP table.
func (lp *LoginProtection) sweep() {
	if lp.ips.clearIfExceeds(maxTrackedIPs) {
		lp.cfg.Logger.Info("login rate limiters reset", "limit", maxTrackedIPs)
	}

	now := lp.now()
	lp.mu.Lock()
	for key, l := range lp.accounts {
		if l.stale(now, lp.cfg.AttemptWindow) {
			delete(lp.accounts, key)
		}
	}
	lp.mu.Unlock()
}

// Middleware rate limits the login route per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !lp.ips.get(ip).Allow() {
				lp.cfg.Logger.WarnContext(r.Context(), "login rate limit exceeded", "ip", ip)
				writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					"Too many login attempts. Please wait a moment and try again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
