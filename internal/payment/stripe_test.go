// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/model"
)

func TestNewGateway(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *model.StripeConfig
		wantErr bool
	}{
		{"nil config", nil, true},
		{"disabled", &model.StripeConfig{SecretKey: "sk_test", Enabled: false}, true},
		{"missing key", &model.StripeConfig{Enabled: true}, true},
		{"enabled", &model.StripeConfig{SecretKey: "sk_test", Enabled: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := NewGateway(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPaymentsDisabled)
				assert.Nil(t, gw)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, gw)
		})
	}
}

func newStripeTestServer(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStripeGateway("sk_test_123", WithBackendURL(srv.URL, srv.Client()))
}

func TestStripeGateway_CreateCheckoutSession(t *testing.T) {
	gw := newStripeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "4900", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "Audit Essentials", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "t-1", r.PostForm.Get("metadata[trainingId]"))
		assert.Equal(t, "Acme", r.PostForm.Get("metadata[userCompany]"))
		assert.Equal(t, "buyer@example.com", r.PostForm.Get("customer_email"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_test_1","payment_status":"unpaid"}`))
	})

	s, err := gw.CreateCheckoutSession(context.Background(), CheckoutRequest{
		TrainingID:    "t-1",
		TrainingTitle: "Audit Essentials",
		Amount:        4900,
		Currency:      "USD",
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Buyer",
		SuccessURL:    "https://example.com/ok?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://example.com/cancel",
		Metadata:      map[string]string{"userCompany": "Acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", s.URL)
	assert.False(t, s.IsPaid())
}

func TestStripeGateway_GetCheckoutSession(t *testing.T) {
	gw := newStripeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_2", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_2","object":"checkout.session","payment_status":"paid","payment_intent":"pi_42","amount_total":4900,"currency":"usd","customer_email":"buyer@example.com"}`))
	})

	s, err := gw.GetCheckoutSession(context.Background(), "cs_test_2")
	require.NoError(t, err)
	assert.True(t, s.IsPaid())
	assert.Equal(t, "pi_42", s.PaymentIntentID)
	assert.Equal(t, int64(4900), s.AmountTotal)
	assert.Equal(t, "usd", s.Currency)
}

func TestStripeGateway_Refund(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		wantAmount string
	}{
		{"full", 0, ""},
		{"partial", 1250, "1250"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newStripeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/refunds", r.URL.Path)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "pi_42", r.PostForm.Get("payment_intent"))
				assert.Equal(t, tt.wantAmount, r.PostForm.Get("amount"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","status":"succeeded","amount":1250}`))
			})

			r, err := gw.Refund(context.Background(), "pi_42", tt.amount)
			require.NoError(t, err)
			assert.Equal(t, "re_1", r.ID)
			assert.Equal(t, "succeeded", r.Status)
		})
	}
}

func TestStripeGateway_APIError(t *testing.T) {
	gw := newStripeTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
	})

	_, err := gw.GetCheckoutSession(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such checkout.session")
}
