// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/session"
	"github.com/olegiv/leaddesk/internal/testutil"
)

const testSecret = "handler-test-secret-0123456789abcdef"

type authFixture struct {
	h        *AuthHandler
	sessions *session.Manager
	login    *middleware.LoginProtection
}

func newAuthFixture(t *testing.T) (authFixture, *sql.DB) {
	t.Helper()
	db := testutil.TestMemoryDB(t)
	users := service.NewUserService(db)
	sessions := session.NewManager(testSecret, false)
	login := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	t.Cleanup(login.Close)
	h := NewAuthHandler(users, sessions, login, nopEvents{}, testutil.TestLoggerSilent())
	return authFixture{h: h, sessions: sessions, login: login}, db
}

func TestAuthHandler_SetupThenLogin(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := call(t, http.MethodGet, "/login", "/login", f.h.LoginHint, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData[map[string]any](t, rec)["setupRequired"])

	setup := map[string]string{"email": "owner@example.com", "password": "s3cret-pass", "name": "Owner"}
	rec = call(t, http.MethodPost, "/api/setup", "/api/setup", f.h.Setup, setup, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "s3cret-pass")

	rec = call(t, http.MethodPost, "/api/setup", "/api/setup", f.h.Setup, setup, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, http.MethodPost, "/api/auth/login", "/api/auth/login", f.h.Login,
		map[string]string{"email": "owner@example.com", "password": "s3cret-pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	info := decodeData[SessionInfo](t, rec)
	assert.Equal(t, "owner@example.com", info.Email)
	assert.Equal(t, model.RoleAdmin, info.Role)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)

	// The issued cookie authenticates the session-info endpoint.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	f.h.Session(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"owner@example.com"`)
	assert.NotContains(t, rec.Body.String(), `"data"`)
}

func TestAuthHandler_InvalidCredentialsAndLockout(t *testing.T) {
	f, db := newAuthFixture(t)
	testutil.CreateUser(t, db, "editor@example.com", "right-password", model.RoleEditor)

	bad := map[string]string{"email": "editor@example.com", "password": "wrong"}
	rec := call(t, http.MethodPost, "/api/auth/login", "/api/auth/login", f.h.Login, bad, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec).Error)
	assert.Empty(t, rec.Result().Cookies())

	rec = call(t, http.MethodPost, "/api/auth/login", "/api/auth/login", f.h.Login, bad, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	good := map[string]string{"email": "editor@example.com", "password": "right-password"}
	rec = call(t, http.MethodPost, "/api/auth/login", "/api/auth/login", f.h.Login, good, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec).Error, "Account temporarily locked"))
}

func TestAuthHandler_SessionWithoutCookie(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := call(t, http.MethodGet, "/api/auth/session", "/api/auth/session", f.h.Session, nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decode(t, rec).Error)
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := call(t, http.MethodPost, "/api/auth/logout", "/api/auth/logout", f.h.Logout, nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
