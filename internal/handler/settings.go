// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/olegiv/leaddesk/internal/email"
	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/service"
)

// TestMailer sends the configuration-test email.
type TestMailer interface {
	SendTest(ctx context.Context, to string) (email.Result, error)
}

// SettingsHandler serves the email and payment configuration API.
// Secrets are always returned masked.
type SettingsHandler struct {
	settings *service.SettingsService
	mailer   TestMailer
	events   middleware.EventLogger
	logger   *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService, mailer TestMailer, events middleware.EventLogger,
	logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, mailer: mailer, events: events, logger: logger}
}

// GetEmail handles GET /settings/email. Data is absent until a configuration is saved.
func (h *SettingsHandler) GetEmail(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.EmailConfig(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if cfg == nil {
		writeSuccess(w, nil, nil)
		return
	}
	writeSuccess(w, cfg.Masked(), nil)
}

// PutEmail handles PUT /settings/email.
func (h *SettingsHandler) PutEmail(w http.ResponseWriter, r *http.Request) {
	var in service.EmailConfigInput
	if !decodeJSON(w, r, &in) {
		return
	}
	cfg, err := h.settings.SaveEmailConfig(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.logChange(r, "Email configuration updated", map[string]any{"provider": cfg.Provider})
	writeSuccess(w, cfg, nil)
}

type testEmailRequest struct {
	To string `json:"to"`
}

// TestEmail handles POST /settings/email/test with the saved configuration.
func (h *SettingsHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	to := strings.TrimSpace(req.To)
	if _, err := mail.ParseAddress(to); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed",
			map[string]string{"to": "must be a valid email address"})
		return
	}

	res, err := h.mailer.SendTest(r.Context(), to)
	switch {
	case errors.Is(err, email.ErrNotConfigured):
		writeError(w, http.StatusConflict, CodeInvalidState, "Email is not configured or auto-send is disabled", nil)
		return
	case err != nil:
		h.logger.WarnContext(r.Context(), "test email failed", "provider", res.Provider, "error", err)
		writeError(w, http.StatusBadGateway, CodeIntegration, "Failed to send test email: "+err.Error(), nil)
		return
	}
	writeSuccess(w, res, nil)
}

// GetPayments handles GET /settings/payments.
func (h *SettingsHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.StripeConfig(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if cfg == nil {
		writeSuccess(w, nil, nil)
		return
	}
	writeSuccess(w, cfg.Masked(), nil)
}

// PutPayments handles PUT /settings/payments.
func (h *SettingsHandler) PutPayments(w http.ResponseWriter, r *http.Request) {
	var in service.StripeConfigInput
	if !decodeJSON(w, r, &in) {
		return
	}
	cfg, err := h.settings.SaveStripeConfig(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.logChange(r, "Payment configuration updated", map[string]any{"enabled": cfg.Enabled, "testMode": cfg.TestMode})
	writeSuccess(w, cfg, nil)
}

func (h *SettingsHandler) logChange(r *http.Request, msg string, metadata map[string]any) {
	h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryConfig, msg,
		middleware.GetUserID(r), middleware.ClientIP(r), metadata)
}
