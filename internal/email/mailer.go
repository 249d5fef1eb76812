// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
)

// ConfigProvider loads the stored email configuration.
// It returns nil and no error when nothing was saved yet.
type ConfigProvider interface {
	EmailConfig(ctx context.Context) (*model.EmailConfig, error)
}

// LogWriter persists delivery attempts.
type LogWriter interface {
	CreateEmailLog(ctx context.Context, l *model.EmailLog) error
}

// SenderFactory builds the Sender for a configuration.
type SenderFactory func(cfg model.EmailConfig) (Sender, error)

// Result describes a successful delivery.
type Result struct {
	Provider  string `json:"provider"`
	MessageID string `json:"messageId,omitempty"`
	To        string `json:"to"`
}

// ResourceEmail is the lead-capture email for one download.
type ResourceEmail struct {
	DownloadID    string
	ResourceType  string
	ResourceTitle string
	DownloadLink  string
	To            string
	UserName      string
}

// Mailer sends messages with the provider from the current configuration.
type Mailer struct {
	configs   ConfigProvider
	logs      LogWriter
	newSender SenderFactory
	now       func() time.Time
	logger    *slog.Logger
}

// MailerOption customizes a Mailer.
type MailerOption func(*Mailer)

// WithSenderFactory replaces provider selection.
func WithSenderFactory(f SenderFactory) MailerOption {
	return func(m *Mailer) { m.newSender = f }
}

// WithClock sets the time source used for log timestamps and {{year}}.
func WithClock(now func() time.Time) MailerOption {
	return func(m *Mailer) { m.now = now }
}

// NewMailer creates a Mailer.
func NewMailer(configs ConfigProvider, logs LogWriter, logger *slog.Logger, opts ...MailerOption) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{
		configs:   configs,
		logs:      logs,
		newSender: NewSender,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send delivers msg using the stored configuration.
func (m *Mailer) Send(ctx context.Context, msg Message) (Result, error) {
	cfg, err := m.configs.EmailConfig(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading email config: %w", err)
	}
	return m.deliver(ctx, cfg, msg)
}

func (m *Mailer) deliver(ctx context.Context, cfg *model.EmailConfig, msg Message) (Result, error) {
	if cfg == nil {
		return Result{}, ErrNotConfigured
	}
	if !cfg.EnableAutoSend {
		return Result{Provider: cfg.Provider}, ErrAutoSendDisabled
	}

	if cfg.TestMode && cfg.TestEmail != "" {
		msg.To = cfg.TestEmail
	}
	res := Result{Provider: cfg.Provider, To: msg.To}

	sender, err := m.newSender(*cfg)
	if err != nil {
		return res, err
	}

	id, err := sender.Send(ctx, msg)
	if err != nil {
		return res, err
	}
	res.MessageID = id
	return res, nil
}

// SendResourceEmail renders the template of the download's resource type,
// sends it and records the attempt in the email log. A missing template
// sends nothing and records nothing.
func (m *Mailer) SendResourceEmail(ctx context.Context, re ResourceEmail) (Result, error) {
	cfg, err := m.configs.EmailConfig(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading email config: %w", err)
	}
	tpl, ok := cfg.Template(re.ResourceType)
	if !ok {
		return Result{}, ErrTemplateNotConfigured
	}

	now := m.now()
	vars := TemplateVars{
		UserName:        re.UserName,
		WhitepaperTitle: re.ResourceTitle,
		DownloadLink:    re.DownloadLink,
		CompanyName:     cfg.FromName,
		Year:            now.Year(),
	}
	msg := RenderTemplate(tpl, vars, re.To, re.UserName)

	res, sendErr := m.deliver(ctx, cfg, msg)

	entry := &model.EmailLog{
		DownloadID: re.DownloadID,
		To:         re.To,
		Subject:    msg.Subject,
		Provider:   cfg.Provider,
		Status:     model.EmailLogSent,
		MessageID:  res.MessageID,
		CreatedAt:  m.now(),
	}
	if sendErr != nil {
		entry.Status = model.EmailLogFailed
		entry.Error = sendErr.Error()
	} else {
		sentAt := entry.CreatedAt
		entry.SentAt = &sentAt
	}
	if err := m.logs.CreateEmailLog(ctx, entry); err != nil {
		m.logger.Error("failed to write email log", "download_id", re.DownloadID, "error", err)
	}

	return res, sendErr
}

// SendTest sends the configuration-test message to to.
func (m *Mailer) SendTest(ctx context.Context, to string) (Result, error) {
	return m.Send(ctx, testMessage(to, m.now()))
}
