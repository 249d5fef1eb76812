// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/session"
)

// AuthHandler handles login, logout, session info and first-run setup.
type AuthHandler struct {
	users    *service.UserService
	sessions *session.Manager
	login    *middleware.LoginProtection
	events   middleware.EventLogger
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. login may be nil to disable
// account lockout.
func NewAuthHandler(users *service.UserService, sessions *session.Manager, login *middleware.LoginProtection,
	events middleware.EventLogger, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		login:    login,
		events:   events,
		logger:   logger,
	}
}

// LoginHint handles GET /login, the target of admin redirects.
func (h *AuthHandler) LoginHint(w http.ResponseWriter, r *http.Request) {
	required, err := h.users.SetupRequired(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, map[string]any{
		"message":       "Authentication required",
		"loginUrl":      "/api/auth/login",
		"setupRequired": required,
	}, nil)
}

// SessionInfo describes the signed-in user.
type SessionInfo struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx := r.Context()
	ip := middleware.ClientIP(r)

	if h.login != nil {
		if locked, remaining := h.login.IsAccountLocked(in.Email); locked {
			h.logger.WarnContext(ctx, "login attempt on locked account", "email", in.Email, "ip", ip)
			writeError(w, http.StatusTooManyRequests, CodeRateLimited,
				fmt.Sprintf("Account temporarily locked. Try again in %s.", remaining.Round(time.Minute)), nil)
			return
		}
	}

	user, err := h.users.Authenticate(ctx, in)
	if errors.Is(err, service.ErrUnauthorized) {
		h.recordFailure(r, in.Email, ip)
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if h.login != nil {
		h.login.RecordSuccessfulLogin(in.Email)
	}
	if err := h.sessions.Create(w, user.ID, user.Email, user.Role); err != nil {
		writeServiceError(w, r, h.logger, fmt.Errorf("creating session: %w", err))
		return
	}
	h.events.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryAuth, "User logged in", user.ID, ip, nil)

	writeSuccess(w, SessionInfo{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		ExpiresAt: time.Now().UTC().Add(session.TTL),
	}, nil)
}

func (h *AuthHandler) recordFailure(r *http.Request, email, ip string) {
	metadata := map[string]any{"email": email}
	if h.login != nil {
		if locked, d := h.login.RecordFailedAttempt(email); locked {
			metadata["lockedFor"] = d.String()
		}
	}
	h.events.LogEvent(r.Context(), model.EventLevelWarning, model.EventCategoryAuth, "Failed login attempt", "", ip, metadata)
}

// Logout handles POST /api/auth/logout. It succeeds with or without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := h.sessions.Get(r); claims != nil {
		h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryAuth, "User logged out",
			claims.UserID, middleware.ClientIP(r), nil)
	}
	h.sessions.Delete(w)
	writeSuccess(w, nil, nil)
}

// sessionResponse is the flat shape of the session-info endpoint.
type sessionResponse struct {
	Success   bool      `json:"success"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session handles GET /api/auth/session: 401 without a valid session,
// otherwise the signed-in email.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := h.sessions.Get(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Not authenticated", nil)
		return
	}
	resp := sessionResponse{Success: true, Email: claims.Email, Role: claims.Role}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}

// Setup handles POST /api/setup, creating the first admin account.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var in service.SetupInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.users.Setup(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryAuth, "Initial admin created",
		user.ID, middleware.ClientIP(r), map[string]any{"email": user.Email})
	writeCreated(w, user)
}
