// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// Payment statuses. Transitions: pending -> completed|failed, completed -> refunded.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// PaymentProviderStripe is the only payment provider.
const PaymentProviderStripe = "stripe"

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "usd"

// PaymentMetadata is request context captured at checkout.
type PaymentMetadata struct {
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// Payment is a training purchase. Amounts are in minor currency units.
type Payment struct {
	ID            string     `json:"id"`
	TrainingID    string     `json:"trainingId"`
	TrainingTitle string     `json:"trainingTitle"`
	TrainingType  string     `json:"trainingType"`
	TrainingDate  *time.Time `json:"trainingDate,omitempty"`

	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	DiscountApplied int64  `json:"discountApplied,omitempty"`
	FinalAmount     int64  `json:"finalAmount"`

	UserEmail   string `json:"userEmail"`
	UserName    string `json:"userName"`
	UserPhone   string `json:"userPhone,omitempty"`
	UserCompany string `json:"userCompany,omitempty"`

	PaymentProvider string           `json:"paymentProvider"`
	PaymentStatus   string           `json:"paymentStatus"`
	SessionID       string           `json:"sessionId,omitempty"`
	PaymentIntentID string           `json:"paymentIntentId,omitempty"`
	Metadata        *PaymentMetadata `json:"metadata,omitempty"`

	PaidAt     *time.Time `json:"paidAt,omitempty"`
	RefundedAt *time.Time `json:"refundedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CanRefund reports whether the payment may be refunded.
func (p *Payment) CanRefund() bool {
	return p.PaymentStatus == PaymentStatusCompleted
}

// PaymentStats aggregates the payments collection.
type PaymentStats struct {
	TotalPayments     int64     `json:"totalPayments"`
	CompletedPayments int64     `json:"completedPayments"`
	PendingPayments   int64     `json:"pendingPayments"`
	TotalRevenue      int64     `json:"totalRevenue"`
	RecentPayments    []Payment `json:"recentPayments"`
}

// StripeConfig is the singleton payment gateway configuration.
type StripeConfig struct {
	PublishableKey string    `json:"publishableKey"`
	SecretKey      string    `json:"secretKey,omitempty"`
	WebhookSecret  string    `json:"webhookSecret,omitempty"`
	Currency       string    `json:"currency"`
	Enabled        bool      `json:"enabled"`
	TestMode       bool      `json:"testMode"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Masked returns a copy safe to send to clients.
func (c StripeConfig) Masked() StripeConfig {
	if c.SecretKey != "" {
		c.SecretKey = SecretMask
	}
	if c.WebhookSecret != "" {
		c.WebhookSecret = SecretMask
	}
	return c
}

// CurrencyOrDefault returns the configured currency in lower case or the default.
func (c *StripeConfig) CurrencyOrDefault() string {
	if c == nil || c.Currency == "" {
		return DefaultCurrency
	}
	return strings.ToLower(c.Currency)
}
