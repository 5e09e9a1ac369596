package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"apimarket_backend/internal/logger"

	"github.com/cenkalti/backoff/v4"
)

const (
	razorpayName        = "Razorpay"
	razorpayMaxAttempts = 3
)

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// RazorpayGateway - клиент Orders API с проверкой подписи HMAC-SHA256
type RazorpayGateway struct {
	cfg    RazorpayConfig
	client *http.Client
	// newBackOff переопределяется в тестах
	newBackOff func() backoff.BackOff
}

func NewRazorpayGateway(cfg RazorpayConfig, client *http.Client) *RazorpayGateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &RazorpayGateway{
		cfg:    cfg,
		client: client,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 200 * time.Millisecond
			bo.MaxInterval = 2 * time.Second
			bo.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(bo, razorpayMaxAttempts-1)
		},
	}
}

func (g *RazorpayGateway) Name() string { return razorpayName }

type razorpayOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type razorpayOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type razorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	payload, err := json.Marshal(razorpayOrderRequest{
		Amount:         req.AmountMinor,
		Currency:       strings.ToUpper(req.Currency),
		Receipt:        req.Reference,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, err
	}

	var order razorpayOrder
	attempt := 0
	operation := func() error {
		attempt++
		err := g.post(ctx, "/v1/orders", payload, &order)
		if err == nil {
			return nil
		}
		var perr *ProviderError
		if errors.As(err, &perr) && perr.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		logger.CtxWarn(ctx, "Razorpay order request failed, retrying", "attempt", attempt, "error", err)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(g.newBackOff(), ctx)); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, &ProviderError{Provider: razorpayName, Message: "order id missing in response"}
	}
	return &Order{Reference: order.ID}, nil
}

func (g *RazorpayGateway) post(ctx context.Context, path string, payload []byte, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("razorpay response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := http.StatusText(resp.StatusCode)
		var eb razorpayErrorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error.Description != "" {
			msg = eb.Error.Description
		}
		return &ProviderError{Provider: razorpayName, StatusCode: resp.StatusCode, Message: msg}
	}
	return json.Unmarshal(body, out)
}

// Verify сверяет подпись checkout: hex(HMAC_SHA256(secret, order_id|payment_id)).
// Несовпадение - Succeeded=false без ошибки.
func (g *RazorpayGateway) Verify(_ context.Context, req VerifyRequest) (*VerifyResult, error) {
	if req.OrderReference == "" || req.PaymentID == "" {
		return nil, &ProviderError{Provider: razorpayName, Message: "order id and payment id are required"}
	}
	expected := Sign(g.cfg.KeySecret, req.OrderReference, req.PaymentID)
	if hmac.Equal([]byte(expected), []byte(strings.ToLower(req.Signature))) {
		return &VerifyResult{Succeeded: true, Status: "captured"}, nil
	}
	return &VerifyResult{Succeeded: false, Status: "signature_mismatch"}, nil
}

// Sign вычисляет подпись так же, как ее считает Razorpay checkout
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
