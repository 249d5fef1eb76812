// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package email delivers lead-capture and test messages through the
// provider selected in the stored email configuration.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/olegiv/leaddesk/internal/model"
)

// Errors returned by sender selection and delivery.
var (
	ErrNotConfigured          = errors.New("email not configured")
	ErrAutoSendDisabled       = fmt.Errorf("%w: auto-send is disabled", ErrNotConfigured)
	ErrTemplateNotConfigured  = errors.New("email template not configured")
	ErrProviderNotImplemented = errors.New("email provider not implemented")
	ErrUnknownProvider        = errors.New("invalid email provider")
)

// Message is a single outgoing email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

// Sender delivers a message through one provider and returns the
// provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewSender returns the Sender for cfg.Provider.
func NewSender(cfg model.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case model.EmailProviderSMTP:
		return newSMTPSender(cfg), nil
	case model.EmailProviderSendGrid:
		return newSendGridSender(cfg, ""), nil
	case model.EmailProviderResend:
		return newResendSender(cfg, nil), nil
	case model.EmailProviderMailgun, model.EmailProviderSES:
		return nil, fmt.Errorf("%w: %s", ErrProviderNotImplemented, cfg.Provider)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// fromAddress formats the configured sender as "Name <address>".
func fromAddress(cfg model.EmailConfig) string {
	addr := mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}
	return addr.String()
}

func replyTo(cfg model.EmailConfig, msg Message) string {
	if msg.ReplyTo != "" {
		return msg.ReplyTo
	}
	return cfg.ReplyTo
}
