// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/payment"
	"github.com/olegiv/leaddesk/internal/store"
)

// CheckoutSessionPlaceholder is replaced by the gateway with the session id.
const CheckoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

const (
	msgTrainingUnavailable = "Training not available"
	msgPaymentNotFound     = "Payment not found"
	msgRefundNotCompleted  = "Can only refund completed payments"
	msgNoPaymentIntent     = "No payment intent ID found"
	msgStripeNotConfigured = "Stripe not configured"
	recentPaymentsLimit    = 10
)

// StripeConfigProvider loads the stored payment configuration.
type StripeConfigProvider interface {
	StripeConfig(ctx context.Context) (*model.StripeConfig, error)
}

// GatewayFactory builds a gateway for a configuration.
type GatewayFactory func(cfg *model.StripeConfig) (payment.Gateway, error)

// CheckoutInput is a visitor's training purchase request.
type CheckoutInput struct {
	UserEmail   string `json:"userEmail" validate:"required,email,max=320"`
	UserName    string `json:"userName" validate:"required,max=200"`
	UserPhone   string `json:"userPhone" validate:"max=50"`
	UserCompany string `json:"userCompany" validate:"max=200"`
	SuccessURL  string `json:"successUrl" validate:"required,url"`
	CancelURL   string `json:"cancelUrl" validate:"required,url"`
}

// CheckoutResult points the visitor to the hosted checkout page.
type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CompleteResult reports the outcome of a returning checkout.
type CompleteResult struct {
	PaymentStatus string         `json:"paymentStatus"`
	Payment       *model.Payment `json:"payment,omitempty"`
}

// PaymentService sells trainings through the payment gateway.
type PaymentService struct {
	queries    *store.Queries
	configs    StripeConfigProvider
	newGateway GatewayFactory
	now        func() time.Time
	logger     *slog.Logger
}

// NewPaymentService creates a PaymentService. A nil factory uses payment.NewGateway.
func NewPaymentService(db *sql.DB, configs StripeConfigProvider, factory GatewayFactory, logger *slog.Logger) *PaymentService {
	if factory == nil {
		factory = payment.NewGateway
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		queries:    store.New(db),
		configs:    configs,
		newGateway: factory,
		now:        time.Now,
		logger:     logger,
	}
}

// toMinor converts a major-unit price to minor units.
func toMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *PaymentService) gateway(ctx context.Context) (payment.Gateway, *model.StripeConfig, error) {
	cfg, err := s.configs.StripeConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	gw, err := s.newGateway(cfg)
	if errors.Is(err, payment.ErrPaymentsDisabled) {
		return nil, nil, invalidState(msgStripeNotConfigured)
	}
	if err != nil {
		return nil, nil, integration("Payment gateway unavailable", err)
	}
	return gw, cfg, nil
}

// CreateTrainingCheckout opens a hosted checkout for a published training and
// records a pending payment. Nothing is stored when the gateway call fails.
func (s *PaymentService) CreateTrainingCheckout(ctx context.Context, trainingID string, in CheckoutInput, meta RequestMeta) (CheckoutResult, error) {
	if err := validateStruct(in); err != nil {
		return CheckoutResult{}, err
	}
	if !strings.Contains(in.SuccessURL, CheckoutSessionPlaceholder) {
		return CheckoutResult{}, invalidField("successUrl", "must contain "+CheckoutSessionPlaceholder)
	}

	t, err := s.queries.GetTrainingByID(ctx, trainingID)
	if err != nil {
		return CheckoutResult{}, lookupErr(err, msgTrainingNotFound)
	}
	if !t.IsPublished() {
		return CheckoutResult{}, invalidState(msgTrainingUnavailable)
	}

	gw, cfg, err := s.gateway(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}

	amount := toMinor(t.EffectivePrice())
	currency := cfg.CurrencyOrDefault()
	sess, err := gw.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		TrainingID:    t.ID,
		TrainingTitle: t.Title,
		Amount:        amount,
		Currency:      currency,
		CustomerEmail: in.UserEmail,
		CustomerName:  in.UserName,
		SuccessURL:    in.SuccessURL,
		CancelURL:     in.CancelURL,
		Metadata: map[string]string{
			"userPhone":   in.UserPhone,
			"userCompany": in.UserCompany,
		},
	})
	if err != nil {
		return CheckoutResult{}, integration("Failed to create checkout session", err)
	}

	now := s.now().UTC()
	p := model.Payment{
		TrainingID:      t.ID,
		TrainingTitle:   t.Title,
		TrainingType:    t.Type,
		TrainingDate:    t.Date,
		Amount:          amount,
		Currency:        strings.ToUpper(currency),
		FinalAmount:     amount,
		UserEmail:       in.UserEmail,
		UserName:        in.UserName,
		UserPhone:       in.UserPhone,
		UserCompany:     in.UserCompany,
		PaymentProvider: model.PaymentProviderStripe,
		PaymentStatus:   model.PaymentStatusPending,
		SessionID:       sess.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if discount := toMinor(t.RegularPrice) - amount; discount > 0 {
		p.DiscountApplied = discount
	}
	if meta != (RequestMeta{}) {
		p.Metadata = &model.PaymentMetadata{
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Referrer:  meta.Referrer,
		}
	}
	if err := s.queries.CreatePayment(ctx, &p); err != nil {
		return CheckoutResult{}, fmt.Errorf("recording payment: %w", err)
	}

	return CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// CompletePayment settles the pending payment of a returning checkout
// session. Unknown sessions are ignored and resolved payments are returned
// unchanged.
func (s *PaymentService) CompletePayment(ctx context.Context, sessionID string) (CompleteResult, error) {
	p, err := s.queries.GetPaymentBySessionID(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return CompleteResult{}, nil
	}
	if err != nil {
		return CompleteResult{}, err
	}
	if p.PaymentStatus != model.PaymentStatusPending {
		return CompleteResult{PaymentStatus: p.PaymentStatus, Payment: &p}, nil
	}

	gw, _, err := s.gateway(ctx)
	if err != nil {
		return CompleteResult{}, err
	}
	sess, err := gw.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return CompleteResult{}, integration("Failed to verify payment", err)
	}

	now := s.now().UTC()
	params := store.CompletePendingPaymentParams{
		SessionID:       sessionID,
		Status:          model.PaymentStatusFailed,
		PaymentIntentID: sess.PaymentIntentID,
		UpdatedAt:       now,
	}
	if sess.IsPaid() {
		params.Status = model.PaymentStatusCompleted
		params.PaidAt = &now
	}
	if err := s.queries.CompletePendingPayment(ctx, params); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return CompleteResult{}, err
	}

	p, err = s.queries.GetPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return CompleteResult{}, err
	}
	return CompleteResult{PaymentStatus: sess.PaymentStatus, Payment: &p}, nil
}

// RefundPayment refunds a completed payment in full, or partially when amount
// is set in major units.
func (s *PaymentService) RefundPayment(ctx context.Context, id string, amount *float64) (model.Payment, error) {
	p, err := s.queries.GetPaymentByID(ctx, id)
	if err != nil {
		return model.Payment{}, lookupErr(err, msgPaymentNotFound)
	}
	if !p.CanRefund() {
		return model.Payment{}, invalidState(msgRefundNotCompleted)
	}
	if p.PaymentIntentID == "" {
		return model.Payment{}, invalidState(msgNoPaymentIntent)
	}

	var minor int64
	if amount != nil {
		minor = toMinor(*amount)
		if minor <= 0 || minor > p.FinalAmount {
			return model.Payment{}, invalidField("amount", "must be greater than 0 and not exceed the paid amount")
		}
	}

	gw, _, err := s.gateway(ctx)
	if err != nil {
		return model.Payment{}, err
	}
	refund, err := gw.Refund(ctx, p.PaymentIntentID, minor)
	if err != nil {
		return model.Payment{}, integration("Refund failed", err)
	}
	s.logger.Info("payment refunded", "payment_id", id, "refund_id", refund.ID, "amount", refund.Amount)

	if err := s.queries.MarkPaymentRefunded(ctx, store.MarkPaymentRefundedParams{ID: id, RefundedAt: s.now()}); err != nil {
		return model.Payment{}, lookupErr(err, msgPaymentNotFound)
	}
	return s.Get(ctx, id)
}

// Get returns a payment by ID.
func (s *PaymentService) Get(ctx context.Context, id string) (model.Payment, error) {
	p, err := s.queries.GetPaymentByID(ctx, id)
	if err != nil {
		return model.Payment{}, lookupErr(err, msgPaymentNotFound)
	}
	return p, nil
}

// List returns payments matching f, newest first.
func (s *PaymentService) List(ctx context.Context, f store.PaymentFilter) (Page[model.Payment], error) {
	items, err := s.queries.ListPayments(ctx, f)
	if err != nil {
		return Page[model.Payment]{}, err
	}
	total, err := s.queries.CountPayments(ctx, f)
	if err != nil {
		return Page[model.Payment]{}, err
	}
	return Page[model.Payment]{Items: items, Total: total}, nil
}

// Stats aggregates payments for the dashboard.
func (s *PaymentService) Stats(ctx context.Context) (model.PaymentStats, error) {
	var st model.PaymentStats

	byStatus, err := s.queries.CountPaymentsByStatus(ctx)
	if err != nil {
		return st, err
	}
	for _, n := range byStatus {
		st.TotalPayments += n
	}
	st.CompletedPayments = byStatus[model.PaymentStatusCompleted]
	st.PendingPayments = byStatus[model.PaymentStatusPending]

	if st.TotalRevenue, err = s.queries.SumCompletedRevenue(ctx); err != nil {
		return st, err
	}
	if st.RecentPayments, err = s.queries.ListPayments(ctx, store.PaymentFilter{Limit: recentPaymentsLimit}); err != nil {
		return st, err
	}
	return st, nil
}
