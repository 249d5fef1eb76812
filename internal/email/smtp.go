// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jwemail "github.com/jordan-wright/email"

	"github.com/olegiv/leaddesk/internal/model"
)

const defaultSMTPPort = 587

type smtpSender struct {
	cfg model.EmailConfig
}

func newSMTPSender(cfg model.EmailConfig) *smtpSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) addr() string {
	port := s.cfg.SMTPPort
	if port == 0 {
		port = defaultSMTPPort
	}
	return net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(port))
}

// build assembles the MIME message and returns it with its Message-Id.
func (s *smtpSender) build(msg Message) (*jwemail.Email, string) {
	e := jwemail.NewEmail()
	e.From = fromAddress(s.cfg)
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	if msg.Text != "" {
		e.Text = []byte(msg.Text)
	}
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}
	if rt := replyTo(s.cfg, msg); rt != "" {
		e.ReplyTo = []string{rt}
	}

	domain := "localhost"
	if at := strings.LastIndex(s.cfg.FromEmail, "@"); at >= 0 && at < len(s.cfg.FromEmail)-1 {
		domain = s.cfg.FromEmail[at+1:]
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
	e.Headers.Set("Message-Id", messageID)
	return e, messageID
}

// Send delivers over SMTP. smtpSecure selects implicit TLS, otherwise
// STARTTLS is used when the server offers it.
func (s *smtpSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.cfg.SMTPHost == "" {
		return "", fmt.Errorf("smtp: %w: host is empty", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e, messageID := s.build(msg)

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	var err error
	if s.cfg.SMTPSecure {
		err = e.SendWithTLS(s.addr(), auth, &tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12})
	} else {
		err = e.Send(s.addr(), auth)
	}
	if err != nil {
		return "", fmt.Errorf("smtp: %w", err)
	}
	return messageID, nil
}
