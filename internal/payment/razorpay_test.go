package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRazorpay(t *testing.T, handler http.HandlerFunc) *RazorpayGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw := NewRazorpayGateway(RazorpayConfig{KeyID: "key", KeySecret: "secret", BaseURL: srv.URL}, srv.Client())
	gw.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, razorpayMaxAttempts-1)
	}
	return gw
}

func TestRazorpay_CreateOrder(t *testing.T) {
	gw := newTestRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		var body razorpayOrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(49900), body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "tx-1", body.Receipt)
		assert.Equal(t, 1, body.PaymentCapture)

		_ = json.NewEncoder(w).Encode(razorpayOrder{ID: "order_123", Status: "created"})
	})

	order, err := gw.CreateOrder(context.Background(), OrderRequest{AmountMinor: 49900, Currency: "inr", Reference: "tx-1"})
	require.NoError(t, err)
	assert.Equal(t, "order_123", order.Reference)
}

func TestRazorpay_CreateOrder_RetriesServerErrors(t *testing.T) {
	var calls int32
	gw := newTestRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(razorpayOrder{ID: "order_ok"})
	})

	order, err := gw.CreateOrder(context.Background(), OrderRequest{AmountMinor: 100, Currency: "INR", Reference: "tx"})
	require.NoError(t, err)
	assert.Equal(t, "order_ok", order.Reference)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRazorpay_CreateOrder_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	gw := newTestRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
	})

	_, err := gw.CreateOrder(context.Background(), OrderRequest{AmountMinor: 1, Currency: "INR", Reference: "tx"})
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "The amount must be atleast INR 1.00", perr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRazorpay_Verify(t *testing.T) {
	gw := NewRazorpayGateway(RazorpayConfig{KeySecret: "secret"}, nil)

	res, err := gw.Verify(context.Background(), VerifyRequest{
		OrderReference: "order_1",
		PaymentID:      "pay_1",
		Signature:      Sign("secret", "order_1", "pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	res, err = gw.Verify(context.Background(), VerifyRequest{
		OrderReference: "order_1",
		PaymentID:      "pay_1",
		Signature:      "deadbeef",
	})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(49900), ToMinorUnits(499))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(0), ToMinorUnits(0))
}
