// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/olegiv/leaddesk/internal/model"
)

const sendGridEndpoint = "/v3/mail/send"

type sendGridSender struct {
	cfg  model.EmailConfig
	host string // empty uses the public API
}

func newSendGridSender(cfg model.EmailConfig, host string) *sendGridSender {
	return &sendGridSender{cfg: cfg, host: host}
}

func (s *sendGridSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("sendgrid: %w: api key is empty", ErrNotConfigured)
	}

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail))
	m.Subject = msg.Subject
	m.AddPersonalizations(p)
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	if rt := replyTo(s.cfg, msg); rt != "" {
		m.SetReplyTo(mail.NewEmail("", rt))
	}

	req := sendgrid.GetRequest(s.cfg.APIKey, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	client := &sendgrid.Client{Request: req}

	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return "", fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return http.Header(resp.Headers).Get("X-Message-Id"), nil
}
