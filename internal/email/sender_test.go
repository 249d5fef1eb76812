// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/model"
)

func TestNewSender(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  error
	}{
		{model.EmailProviderSMTP, nil},
		{model.EmailProviderSendGrid, nil},
		{model.EmailProviderResend, nil},
		{model.EmailProviderMailgun, ErrProviderNotImplemented},
		{model.EmailProviderSES, ErrProviderNotImplemented},
		{"pigeon", ErrUnknownProvider},
		{"", ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			s, err := NewSender(model.EmailConfig{Provider: tt.provider})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestSendGridSender(t *testing.T) {
	var gotAuth string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("X-Message-Id", "sg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := model.EmailConfig{APIKey: "SG.key", FromEmail: "noreply@example.com", FromName: "Acme", ReplyTo: "sales@example.com"}
	id, err := newSendGridSender(cfg, srv.URL).Send(context.Background(), Message{
		To: "lead@example.com", Subject: "Hello", Text: "hi", HTML: "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "sg-123", id)
	assert.Equal(t, "Bearer SG.key", gotAuth)
	assert.Equal(t, "Hello", body["subject"])
	from, _ := body["from"].(map[string]any)
	assert.Equal(t, "noreply@example.com", from["email"])
	replyTo, _ := body["reply_to"].(map[string]any)
	assert.Equal(t, "sales@example.com", replyTo["email"])
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	_, err := newSendGridSender(model.EmailConfig{APIKey: "bad"}, srv.URL).Send(context.Background(), Message{To: "a@example.com", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestSendGridSender_MissingKey(t *testing.T) {
	_, err := newSendGridSender(model.EmailConfig{}, "").Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResendSender(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/emails"))
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re-789"}`))
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)

	cfg := model.EmailConfig{APIKey: "re_key", FromEmail: "noreply@example.com", FromName: "Acme"}
	id, err := newResendSender(cfg, base).Send(context.Background(), Message{
		To: "lead@example.com", Subject: "Hello", HTML: "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "re-789", id)
	assert.Equal(t, `"Acme" <noreply@example.com>`, body["from"])
	assert.Equal(t, "Hello", body["subject"])
}

func TestSMTPSender_Build(t *testing.T) {
	cfg := model.EmailConfig{
		SMTPHost:  "mail.example.com",
		FromEmail: "noreply@example.com",
		FromName:  "Acme",
		ReplyTo:   "sales@example.com",
	}
	s := newSMTPSender(cfg)
	assert.Equal(t, "mail.example.com:587", s.addr())

	e, id := s.build(Message{To: "lead@example.com", Subject: "Hi", Text: "t", HTML: "<p>h</p>"})
	assert.Equal(t, []string{"lead@example.com"}, e.To)
	assert.Equal(t, []string{"sales@example.com"}, e.ReplyTo)
	assert.Equal(t, `"Acme" <noreply@example.com>`, e.From)
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@example.com>"))
	assert.Equal(t, id, e.Headers.Get("Message-Id"))

	raw, err := e.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Subject: Hi")
}

func TestSMTPSender_MissingHost(t *testing.T) {
	_, err := newSMTPSender(model.EmailConfig{}).Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
