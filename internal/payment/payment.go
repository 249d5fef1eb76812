// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package payment wraps the hosted-checkout payment gateway used for
// training purchases.
package payment

import (
	"context"
	"errors"

	"github.com/olegiv/leaddesk/internal/model"
)

// ErrPaymentsDisabled is returned when no enabled gateway configuration exists.
var ErrPaymentsDisabled = errors.New("stripe not configured")

// SessionPaid is the checkout payment status of a settled session.
const SessionPaid = "paid"

// CheckoutRequest describes a single-item hosted checkout.
type CheckoutRequest struct {
	TrainingID    string
	TrainingTitle string
	Amount        int64 // minor units
	Currency      string
	CustomerEmail string
	CustomerName  string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession is the gateway's view of a checkout.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
}

// IsPaid reports whether the session settled.
func (s CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == SessionPaid
}

// Refund is the result of a refund request.
type Refund struct {
	ID     string
	Status string
	Amount int64
}

// Gateway creates and inspects checkout sessions and issues refunds.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error)
	// Refund refunds amount minor units, or the full charge when amount is 0.
	Refund(ctx context.Context, paymentIntentID string, amount int64) (Refund, error)
}

// NewGateway builds the gateway for cfg.
func NewGateway(cfg *model.StripeConfig) (Gateway, error) {
	if cfg == nil || !cfg.Enabled || cfg.SecretKey == "" {
		return nil, ErrPaymentsDisabled
	}
	return NewStripeGateway(cfg.SecretKey), nil
}
