// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

const paymentColumns = `id, training_id, training_title, training_type, training_date, amount, currency,
	discount_applied, final_amount, user_email, user_name, user_phone, user_company,
	payment_provider, payment_status, session_id, payment_intent_id, metadata, paid_at,
	refunded_at, created_at, updated_at`

func scanPayment(s scanner) (model.Payment, error) {
	var p model.Payment
	var trainingDate, metadata, paidAt, refundedAt sql.NullString
	var createdAt, updatedAt string
	err := s.Scan(&p.ID, &p.TrainingID, &p.TrainingTitle, &p.TrainingType, &trainingDate, &p.Amount,
		&p.Currency, &p.DiscountApplied, &p.FinalAmount, &p.UserEmail, &p.UserName, &p.UserPhone,
		&p.UserCompany, &p.PaymentProvider, &p.PaymentStatus, &p.SessionID, &p.PaymentIntentID,
		&metadata, &paidAt, &refundedAt, &createdAt, &updatedAt)
	if err != nil {
		return model.Payment{}, err
	}
	p.TrainingDate = parseNullTime(trainingDate)
	p.Metadata = parseNullJSON[model.PaymentMetadata](metadata)
	p.PaidAt = parseNullTime(paidAt)
	p.RefundedAt = parseNullTime(refundedAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// CreatePayment inserts p, assigning a new ID.
func (q *Queries) CreatePayment(ctx context.Context, p *model.Payment) error {
	p.ID = uuid.NewString()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TrainingID, p.TrainingTitle, p.TrainingType, formatNullTime(p.TrainingDate), p.Amount,
		p.Currency, p.DiscountApplied, p.FinalAmount, p.UserEmail, p.UserName, p.UserPhone,
		p.UserCompany, p.PaymentProvider, p.PaymentStatus, p.SessionID, p.PaymentIntentID,
		nullJSON(p.Metadata), formatNullTime(p.PaidAt), formatNullTime(p.RefundedAt),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

// GetPaymentByID returns sql.ErrNoRows when missing.
func (q *Queries) GetPaymentByID(ctx context.Context, id string) (model.Payment, error) {
	return scanPayment(q.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
}

// GetPaymentBySessionID looks a payment up by its checkout session.
func (q *Queries) GetPaymentBySessionID(ctx context.Context, sessionID string) (model.Payment, error) {
	return scanPayment(q.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE session_id = ?`, sessionID))
}

// CompletePendingPaymentParams resolves a pending payment.
type CompletePendingPaymentParams struct {
	SessionID       string
	Status          string
	PaymentIntentID string
	PaidAt          *time.Time
	UpdatedAt       time.Time
}

// CompletePendingPayment moves a pending payment to Status. Rows in any other
// status are left unchanged and sql.ErrNoRows is returned.
func (q *Queries) CompletePendingPayment(ctx context.Context, arg CompletePendingPaymentParams) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE payments SET payment_status = ?, payment_intent_id = ?, paid_at = ?, updated_at = ?
		WHERE session_id = ? AND payment_status = ?`,
		arg.Status, arg.PaymentIntentID, formatNullTime(arg.PaidAt), formatTime(arg.UpdatedAt),
		arg.SessionID, model.PaymentStatusPending))
}

// MarkPaymentRefundedParams records a refund.
type MarkPaymentRefundedParams struct {
	ID         string
	RefundedAt time.Time
}

// MarkPaymentRefunded moves a completed payment to refunded.
func (q *Queries) MarkPaymentRefunded(ctx context.Context, arg MarkPaymentRefundedParams) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE payments SET payment_status = ?, refunded_at = ?, updated_at = ?
		WHERE id = ? AND payment_status = ?`,
		model.PaymentStatusRefunded, formatTime(arg.RefundedAt), formatTime(arg.RefundedAt),
		arg.ID, model.PaymentStatusCompleted))
}

// PaymentFilter narrows the payments listing.
type PaymentFilter struct {
	Status     string
	TrainingID string
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

func paymentWhere(f PaymentFilter) *whereClause {
	w := &whereClause{}
	w.eq("payment_status", f.Status)
	w.eq("training_id", f.TrainingID)
	w.search(f.Search, "user_email", "user_name", "training_title")
	w.between("created_at", f.DateFrom, f.DateTo)
	return w
}

// ListPayments returns payments matching f, newest first.
func (q *Queries) ListPayments(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
	w := paymentWhere(f)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments`+w.String()+
			` ORDER BY created_at DESC`+limitOffset(f.Limit, f.Offset),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// CountPayments counts payments matching f.
func (q *Queries) CountPayments(ctx context.Context, f PaymentFilter) (int64, error) {
	w := paymentWhere(f)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`+w.String(), w.args...).Scan(&n)
	return n, err
}

// CountPaymentsByStatus groups payments by status.
func (q *Queries) CountPaymentsByStatus(ctx context.Context) (map[string]int64, error) {
	return q.countByColumn(ctx, "payments", "payment_status")
}

// SumCompletedRevenue totals final amounts of completed payments in minor units.
func (q *Queries) SumCompletedRevenue(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(final_amount), 0) FROM payments WHERE payment_status = ?`,
		model.PaymentStatusCompleted).Scan(&n)
	return n, err
}
