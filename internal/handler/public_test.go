// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/payment"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/testutil"
)

// recordingGateway captures checkout requests.
type recordingGateway struct {
	requests []payment.CheckoutRequest
}

func (g *recordingGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	g.requests = append(g.requests, req)
	return payment.CheckoutSession{ID: "cs_test_42", URL: "https://checkout.example.com/cs_test_42"}, nil
}

func (g *recordingGateway) GetCheckoutSession(_ context.Context, id string) (payment.CheckoutSession, error) {
	return payment.CheckoutSession{ID: id, PaymentStatus: payment.SessionPaid, PaymentIntentID: "pi_42"}, nil
}

func (g *recordingGateway) Refund(context.Context, string, int64) (payment.Refund, error) {
	return payment.Refund{ID: "re_1", Status: "succeeded"}, nil
}

type stripeConfig struct{ cfg *model.StripeConfig }

func (s stripeConfig) StripeConfig(context.Context) (*model.StripeConfig, error) { return s.cfg, nil }

type publicFixture struct {
	h           *PublicHandler
	db          *sql.DB
	queue       *discardQueue
	gateway     *recordingGateway
	whitepapers *service.WhitepaperService
	trainings   *service.TrainingService
	speakers    *service.SpeakerService
}

func newPublicFixture(t *testing.T) publicFixture {
	t.Helper()
	db := testutil.TestMemoryDB(t)
	logger := testutil.TestLoggerSilent()
	f := publicFixture{
		db:          db,
		queue:       &discardQueue{},
		gateway:     &recordingGateway{},
		whitepapers: service.NewWhitepaperService(db),
		trainings:   service.NewTrainingService(db),
		speakers:    service.NewSpeakerService(db),
	}
	cfg := stripeConfig{cfg: &model.StripeConfig{Enabled: true, SecretKey: "sk_test_1", Currency: "usd"}}
	downloads := service.NewDownloadService(db, nopMailer{}, f.queue, nil, nil, logger)
	payments := service.NewPaymentService(db, cfg, func(*model.StripeConfig) (payment.Gateway, error) {
		return f.gateway, nil
	}, logger)
	f.h = NewPublicHandler(downloads, f.trainings, payments, "https://training.example.com/", logger)
	return f
}

func (f publicFixture) createTraining(t *testing.T, status string) model.Training {
	t.Helper()
	sp, err := f.speakers.Create(context.Background(), service.SpeakerInput{Name: "Dr. Lee"})
	require.NoError(t, err)
	tr, err := f.trainings.Create(context.Background(), service.TrainingInput{
		Title:        "CAPA Essentials",
		Description:  "Corrective and preventive action.",
		Content:      "**Agenda**<script>alert(1)</script>",
		Duration:     "90 Mins",
		Level:        model.LevelBasic,
		Type:         model.TrainingTypeLive,
		Industry:     "Medical Devices",
		SpeakerID:    sp.ID,
		RegularPrice: 249,
		Status:       status,
	})
	require.NoError(t, err)
	return tr
}

func TestPublicHandler_TrackDownload(t *testing.T) {
	f := newPublicFixture(t)
	wp, err := f.whitepapers.Create(context.Background(), service.WhitepaperInput{
		Title:       "Audit Guide",
		Description: "d",
		Category:    "Compliance",
		PDFURL:      "https://cdn.example.com/audit.pdf",
		Author:      "Jane Roe",
		Status:      model.StatusPublished,
	})
	require.NoError(t, err)

	rec := call(t, http.MethodPost, "/api/whitepapers/{id}/download", "/api/whitepapers/"+wp.ID+"/download",
		f.h.TrackDownload, map[string]string{"email": "lead@example.com", "name": "Lee Ad"}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Success    bool   `json:"success"`
		DownloadID string `json:"downloadId"`
		PDFURL     string `json:"pdfUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.DownloadID)
	assert.Equal(t, "https://cdn.example.com/audit.pdf", resp.PDFURL)
	assert.Len(t, f.queue.jobs, 1)

	got, err := f.whitepapers.Get(context.Background(), wp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Downloads)
}

func TestPublicHandler_TrackDownloadErrors(t *testing.T) {
	f := newPublicFixture(t)

	rec := call(t, http.MethodPost, "/api/whitepapers/{id}/download", "/api/whitepapers/nope/download",
		f.h.TrackDownload, map[string]string{"email": "lead@example.com", "name": "Lee"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Whitepaper not found", decode(t, rec).Error)

	rec = call(t, http.MethodPost, "/api/whitepapers/{id}/download", "/api/whitepapers/nope/download",
		f.h.TrackDownload, map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.queue.jobs)
}

func TestPublicHandler_Training(t *testing.T) {
	f := newPublicFixture(t)
	published := f.createTraining(t, model.StatusPublished)

	rec := call(t, http.MethodGet, "/api/trainings/{id}", "/api/trainings/"+published.ID, f.h.Training, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pt := decodeData[map[string]any](t, rec)
	assert.Contains(t, pt["contentHtml"], "<strong>Agenda</strong>")
	assert.NotContains(t, pt["contentHtml"], "<script>")
}

func TestPublicHandler_DraftTrainingHidden(t *testing.T) {
	f := newPublicFixture(t)
	draft := f.createTraining(t, model.StatusDraft)

	rec := call(t, http.MethodGet, "/api/trainings/{id}", "/api/trainings/"+draft.ID, f.h.Training, nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicHandler_CheckoutDefaultsReturnURLs(t *testing.T) {
	f := newPublicFixture(t)
	tr := f.createTraining(t, model.StatusPublished)

	rec := call(t, http.MethodPost, "/api/trainings/{id}/checkout", "/api/trainings/"+tr.ID+"/checkout",
		f.h.Checkout, map[string]string{"userEmail": "buyer@example.com", "userName": "Buyer"}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeData[service.CheckoutResult](t, rec)
	assert.Equal(t, "cs_test_42", res.SessionID)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, "https://training.example.com/training/payment/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://training.example.com/trainings/"+tr.Slug, req.CancelURL)
	assert.Equal(t, int64(24900), req.Amount)
}

func TestPublicHandler_PaymentSuccess(t *testing.T) {
	f := newPublicFixture(t)
	tr := f.createTraining(t, model.StatusPublished)

	rec := call(t, http.MethodGet, "/training/payment/success", "/training/payment/success", f.h.PaymentSuccess, nil, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(t, http.MethodPost, "/api/trainings/{id}/checkout", "/api/trainings/"+tr.ID+"/checkout",
		f.h.Checkout, map[string]string{"userEmail": "buyer@example.com", "userName": "Buyer"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, http.MethodGet, "/training/payment/success", "/training/payment/success?session_id=cs_test_42",
		f.h.PaymentSuccess, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeData[service.CompleteResult](t, rec)
	assert.Equal(t, payment.SessionPaid, res.PaymentStatus)
	require.NotNil(t, res.Payment)
	assert.Equal(t, model.PaymentStatusCompleted, res.Payment.PaymentStatus)
}
