package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"apimarket_backend/internal/payment"
)

// FakeRazorpay - заглушка POST /v1/orders
type FakeRazorpay struct {
	server *httptest.Server

	mu     sync.Mutex
	orders []string
}

func NewFakeRazorpay(t *testing.T) *FakeRazorpay {
	t.Helper()
	f := &FakeRazorpay{}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *FakeRazorpay) URL() string { return f.server.URL }

func (f *FakeRazorpay) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
		http.NotFound(w, r)
		return
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != RazorpayKeyID || pass != RazorpayKeySecret {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
		return
	}

	f.mu.Lock()
	id := fmt.Sprintf("order_test_%d", len(f.orders)+1)
	f.orders = append(f.orders, id)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "created"})
}

// Orders возвращает id созданных заказов
func (f *FakeRazorpay) Orders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.orders...)
}

// Signature - подпись checkout, которую получил бы клиент
func Signature(orderID, paymentID string) string {
	return payment.Sign(RazorpayKeySecret, orderID, paymentID)
}
