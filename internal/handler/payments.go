// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/store"
)

// PaymentHandler serves the payment admin API.
type PaymentHandler struct {
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// List handles GET /payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	q := r.URL.Query()
	from, to, err := dateRange(q)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	page, err := h.payments.List(r.Context(), store.PaymentFilter{
		Status:     q.Get("status"),
		TrainingID: q.Get("trainingId"),
		Search:     q.Get("search"),
		DateFrom:   from,
		DateTo:     to,
		Limit:      p.Limit(),
		Offset:     p.Offset(),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, page.Items, p.Meta(page.Total))
}

// Stats handles GET /payments/stats.
func (h *PaymentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.payments.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, stats, nil)
}

// Get handles GET /payments/{id}.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	getEntity(h.logger, h.payments.Get)(w, r)
}

// refundRequest is the optional body of a refund. Without an amount the
// payment is refunded in full.
type refundRequest struct {
	Amount *float64 `json:"amount"`
}

// Refund handles POST /payments/{id}/refund.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	p, err := h.payments.RefundPayment(r.Context(), idParam(r), req.Amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, p, nil)
}
