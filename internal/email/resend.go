// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package email

import (
	"context"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"

	"github.com/olegiv/leaddesk/internal/model"
)

type resendSender struct {
	cfg     model.EmailConfig
	baseURL *url.URL // nil uses the public API
}

func newResendSender(cfg model.EmailConfig, baseURL *url.URL) *resendSender {
	return &resendSender{cfg: cfg, baseURL: baseURL}
}

func (s *resendSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("resend: %w: api key is empty", ErrNotConfigured)
	}

	client := resend.NewClient(s.cfg.APIKey)
	if s.baseURL != nil {
		client.BaseURL = s.baseURL
	}

	params := &resend.SendEmailRequest{
		From:    fromAddress(s.cfg),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: replyTo(s.cfg, msg),
	}

	sent, err := client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
