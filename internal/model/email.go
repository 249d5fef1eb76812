// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Email providers.
const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderResend   = "resend"
	EmailProviderMailgun  = "mailgun"
	EmailProviderSES      = "aws-ses"
	EmailProviderSMTP     = "smtp"
)

// Email log statuses.
const (
	EmailLogSent   = "sent"
	EmailLogFailed = "failed"
)

// SecretMask replaces stored secrets when configuration is read back.
const SecretMask = "••••••••"

// EmailTemplate is the message sent for one resource type.
type EmailTemplate struct {
	Subject   string `json:"subject"`
	HTMLBody  string `json:"htmlBody"`
	TextBody  string `json:"textBody"`
	AttachPDF bool   `json:"attachPDF"`
}

// EmailConfig is the singleton email delivery configuration.
type EmailConfig struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey,omitempty"`

	SMTPHost     string `json:"smtpHost,omitempty"`
	SMTPPort     int    `json:"smtpPort,omitempty"`
	SMTPUser     string `json:"smtpUser,omitempty"`
	SMTPPassword string `json:"smtpPassword,omitempty"`
	SMTPSecure   bool   `json:"smtpSecure"`

	FromEmail string `json:"fromEmail"`
	FromName  string `json:"fromName"`
	ReplyTo   string `json:"replyTo,omitempty"`

	EnableAutoSend bool `json:"enableAutoSend"`
	EnableRetry    bool `json:"enableRetry"`
	MaxRetries     int  `json:"maxRetries"`
	RetryDelay     int  `json:"retryDelay"` // seconds

	TestMode  bool   `json:"testMode"`
	TestEmail string `json:"testEmail,omitempty"`

	Templates map[string]EmailTemplate `json:"templates"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Template returns the template configured for a resource type.
func (c *EmailConfig) Template(resourceType string) (EmailTemplate, bool) {
	if c == nil || c.Templates == nil {
		return EmailTemplate{}, false
	}
	tpl, ok := c.Templates[resourceType]
	return tpl, ok
}

// Masked returns a copy safe to send to clients. c is left unchanged.
func (c *EmailConfig) Masked() EmailConfig {
	m := *c
	if m.APIKey != "" {
		m.APIKey = SecretMask
	}
	if m.SMTPPassword != "" {
		m.SMTPPassword = SecretMask
	}
	return m
}

// EmailLog records one delivery attempt.
type EmailLog struct {
	ID         string     `json:"id"`
	DownloadID string     `json:"downloadId"`
	To         string     `json:"to"`
	Subject    string     `json:"subject"`
	Provider   string     `json:"provider"`
	Status     string     `json:"status"`
	MessageID  string     `json:"messageId,omitempty"`
	Error      string     `json:"error,omitempty"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
