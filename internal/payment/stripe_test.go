package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

// newTestStripe поднимает фейковый Stripe API с заданными intent'ами
func newTestStripe(t *testing.T, intents map[string]map[string]interface{}) (*StripeGateway, *[]string) {
	t.Helper()
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/")
		requested = append(requested, id)
		w.Header().Set("Content-Type", "application/json")
		pi, ok := intents[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"type": "invalid_request_error", "code": "resource_missing", "message": "No such payment_intent"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(pi)
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        srv.Client(),
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewStripeGatewayWithBackend("sk_test", backend), &requested
}

func intent(id, status, transactionID string) map[string]interface{} {
	return map[string]interface{}{
		"id":       id,
		"object":   "payment_intent",
		"status":   status,
		"metadata": map[string]string{"transaction_id": transactionID},
	}
}

func TestStripe_Verify_OwnIntent(t *testing.T) {
	gw, requested := newTestStripe(t, map[string]map[string]interface{}{
		"pi_new": intent("pi_new", "succeeded", "tx-new"),
	})

	result, err := gw.Verify(context.Background(), VerifyRequest{TransactionID: "tx-new", OrderReference: "pi_new"})
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, "succeeded", result.Status)
	assert.Equal(t, []string{"pi_new"}, *requested)
}

func TestStripe_Verify_NotSucceeded(t *testing.T) {
	gw, _ := newTestStripe(t, map[string]map[string]interface{}{
		"pi_new": intent("pi_new", "requires_payment_method", "tx-new"),
	})

	result, err := gw.Verify(context.Background(), VerifyRequest{TransactionID: "tx-new", OrderReference: "pi_new", PaymentID: "pi_new"})
	require.NoError(t, err)
	assert.False(t, result.Succeeded)
	assert.Equal(t, "requires_payment_method", result.Status)
}

func TestStripe_Verify_RejectsForeignIntent(t *testing.T) {
	gw, requested := newTestStripe(t, map[string]map[string]interface{}{
		"pi_old": intent("pi_old", "succeeded", "tx-cheap"),
		"pi_new": intent("pi_new", "requires_payment_method", "tx-expensive"),
	})

	// клиент подставляет чужой оплаченный intent
	result, err := gw.Verify(context.Background(), VerifyRequest{TransactionID: "tx-expensive", OrderReference: "pi_new", PaymentID: "pi_old"})
	assert.ErrorIs(t, err, ErrReferenceMismatch)
	assert.Nil(t, result)
	assert.Empty(t, *requested, "чужой intent не должен запрашиваться")
}

func TestStripe_Verify_RejectsMetadataMismatch(t *testing.T) {
	// сохраненная ссылка указывает на intent другого платежа
	gw, _ := newTestStripe(t, map[string]map[string]interface{}{
		"pi_old": intent("pi_old", "succeeded", "tx-cheap"),
	})

	result, err := gw.Verify(context.Background(), VerifyRequest{TransactionID: "tx-expensive", OrderReference: "pi_old"})
	assert.ErrorIs(t, err, ErrReferenceMismatch)
	assert.Nil(t, result)
}

func TestStripe_Verify_RequiresStoredReference(t *testing.T) {
	gw, requested := newTestStripe(t, nil)

	_, err := gw.Verify(context.Background(), VerifyRequest{TransactionID: "tx-1", PaymentID: "pi_old"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, *requested)
}

func TestStripe_Verify_UnknownIntent(t *testing.T) {
	gw, _ := newTestStripe(t, nil)

	_, err := gw.Verify(context.Background(), VerifyRequest{TransactionID: "tx-1", OrderReference: "pi_missing"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
	assert.Equal(t, stripeName, perr.Provider)
}
