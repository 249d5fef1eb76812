// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/cache"
	"github.com/olegiv/leaddesk/internal/email"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/testutil"
)

type fakeTestMailer struct {
	to  string
	err error
}

func (m *fakeTestMailer) SendTest(_ context.Context, to string) (email.Result, error) {
	m.to = to
	if m.err != nil {
		return email.Result{Provider: model.EmailProviderSMTP}, m.err
	}
	return email.Result{Provider: model.EmailProviderSMTP, MessageID: "m-1", To: to}, nil
}

func newSettingsHandler(t *testing.T, mailer TestMailer) *SettingsHandler {
	t.Helper()
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	settings := service.NewSettingsService(testutil.TestMemoryDB(t), c, time.Minute, testutil.TestLoggerSilent())
	return NewSettingsHandler(settings, mailer, nopEvents{}, testutil.TestLoggerSilent())
}

func TestSettingsHandler_EmailRoundTripMasksSecrets(t *testing.T) {
	h := newSettingsHandler(t, &fakeTestMailer{})

	rec := call(t, http.MethodGet, "/settings/email", "/settings/email", h.GetEmail, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec).Data)

	rec = call(t, http.MethodPut, "/settings/email", "/settings/email", h.PutEmail, map[string]any{
		"provider":     model.EmailProviderSMTP,
		"smtpHost":     "smtp.example.com",
		"smtpPort":     587,
		"smtpUser":     "mailer",
		"smtpPassword": "hunter2-secret",
		"fromEmail":    "noreply@example.com",
		"fromName":     "Training Team",
	}, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "hunter2-secret")

	rec = call(t, http.MethodGet, "/settings/email", "/settings/email", h.GetEmail, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decodeData[model.EmailConfig](t, rec)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, model.SecretMask, cfg.SMTPPassword)
}

func TestSettingsHandler_EmailValidation(t *testing.T) {
	h := newSettingsHandler(t, &fakeTestMailer{})

	rec := call(t, http.MethodPut, "/settings/email", "/settings/email", h.PutEmail,
		map[string]any{"provider": "pigeon", "fromName": "x"}, adminClaims)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, env.Details, "provider")
	assert.Contains(t, env.Details, "fromEmail")
}

func TestSettingsHandler_TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		sendErr error
		status  int
	}{
		{"sent", "admin@example.com", nil, http.StatusOK},
		{"invalid recipient", "admin", nil, http.StatusUnprocessableEntity},
		{"not configured", "admin@example.com", email.ErrNotConfigured, http.StatusConflict},
		{"auto-send disabled", "admin@example.com", email.ErrAutoSendDisabled, http.StatusConflict},
		{"provider failure", "admin@example.com", errors.New("535 authentication failed"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeTestMailer{err: tt.sendErr}
			h := newSettingsHandler(t, m)

			rec := call(t, http.MethodPost, "/settings/email/test", "/settings/email/test", h.TestEmail,
				map[string]string{"to": tt.to}, adminClaims)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusUnprocessableEntity {
				assert.Empty(t, m.to)
			}
		})
	}
}

func TestSettingsHandler_Payments(t *testing.T) {
	h := newSettingsHandler(t, &fakeTestMailer{})

	rec := call(t, http.MethodPut, "/settings/payments", "/settings/payments", h.PutPayments, map[string]any{
		"publishableKey": "pk_test_1",
		"secretKey":      "sk_test_very_secret",
		"enabled":        true,
		"testMode":       true,
	}, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "sk_test_very_secret")

	rec = call(t, http.MethodGet, "/settings/payments", "/settings/payments", h.GetPayments, nil, adminClaims)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decodeData[model.StripeConfig](t, rec)
	assert.Equal(t, "pk_test_1", cfg.PublishableKey)
	assert.Equal(t, model.SecretMask, cfg.SecretKey)
	assert.True(t, cfg.Enabled)

	rec = call(t, http.MethodPut, "/settings/payments", "/settings/payments", h.PutPayments,
		map[string]any{"enabled": true, "currency": "euro"}, adminClaims)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
