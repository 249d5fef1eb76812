// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/leaddesk/internal/service"
)

// PublicHandler serves the unauthenticated site API.
type PublicHandler struct {
	downloads *service.DownloadService
	trainings *service.TrainingService
	payments  *service.PaymentService
	baseURL   string
	logger    *slog.Logger
}

// NewPublicHandler creates a PublicHandler. baseURL is the public origin used
// for default checkout return URLs.
func NewPublicHandler(downloads *service.DownloadService, trainings *service.TrainingService,
	payments *service.PaymentService, baseURL string, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		downloads: downloads,
		trainings: trainings,
		payments:  payments,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

type trackResponse struct {
	Success bool `json:"success"`
	service.TrackResult
}

// TrackDownload handles POST /api/whitepapers/{id}/download. The email is
// sent in the background; the response carries the PDF link right away.
func (h *PublicHandler) TrackDownload(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := h.downloads.TrackWhitepaperDownload(r.Context(), idParam(r), in, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, trackResponse{Success: true, TrackResult: res})
}

// Training handles GET /api/trainings/{id}. Only published trainings are visible.
func (h *PublicHandler) Training(w http.ResponseWriter, r *http.Request) {
	t, err := h.trainings.GetPublished(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, t, nil)
}

// Checkout handles POST /api/trainings/{id}/checkout and returns the hosted
// checkout URL.
func (h *PublicHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in service.CheckoutInput
	if !decodeJSON(w, r, &in) {
		return
	}
	id := idParam(r)
	if in.SuccessURL == "" {
		in.SuccessURL = h.baseURL + RoutePaymentSuccess + "?session_id=" + service.CheckoutSessionPlaceholder
	}
	if in.CancelURL == "" {
		in.CancelURL = h.cancelURL(r, id)
	}
	res, err := h.payments.CreateTrainingCheckout(r.Context(), id, in, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, res, nil)
}

// cancelURL points back to the training page, or the site root when the
// training cannot be loaded. The checkout call reports the lookup error.
func (h *PublicHandler) cancelURL(r *http.Request, id string) string {
	t, err := h.trainings.Get(r.Context(), id)
	if err != nil || t.Slug == "" {
		return h.baseURL + "/"
	}
	return h.baseURL + RouteTrainings + "/" + t.Slug
}

// PaymentSuccess handles GET /training/payment/success?session_id=..., the
// checkout return URL. It confirms the payment with the gateway.
func (h *PublicHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, "Session ID is required",
			map[string]string{"session_id": "required"})
		return
	}
	res, err := h.payments.CompletePayment(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, res, nil)
}
