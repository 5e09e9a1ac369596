package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

const stripeName = "Stripe"

// StripeGateway - PaymentIntents API
type StripeGateway struct {
	intents paymentintent.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return NewStripeGatewayWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

// NewStripeGatewayWithBackend - шлюз поверх заданного backend (тесты, прокси)
func NewStripeGatewayWithBackend(secretKey string, backend stripe.Backend) *StripeGateway {
	return &StripeGateway{
		intents: paymentintent.Client{B: backend, Key: secretKey},
	}
}

func (g *StripeGateway) Name() string { return stripeName }

func (g *StripeGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx
	params.AddMetadata("transaction_id", req.Reference)
	params.SetIdempotencyKey(req.Reference)

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, stripeError(err)
	}
	return &Order{Reference: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Verify опрашивает intent, созданный для платежа: успех только при succeeded.
// Чужой intent (другой id или другой transaction_id в metadata) отклоняется.
func (g *StripeGateway) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if req.OrderReference == "" {
		return nil, &ProviderError{Provider: stripeName, Message: "payment intent is not known for this payment"}
	}
	if req.PaymentID != "" && req.PaymentID != req.OrderReference {
		return nil, ErrReferenceMismatch
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(req.OrderReference, params)
	if err != nil {
		return nil, stripeError(err)
	}
	if req.TransactionID != "" && pi.Metadata["transaction_id"] != req.TransactionID {
		return nil, ErrReferenceMismatch
	}
	return &VerifyResult{
		Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded,
		Status:    string(pi.Status),
	}, nil
}

func stripeError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		msg := serr.Msg
		if msg == "" {
			msg = string(serr.Code)
		}
		return &ProviderError{Provider: stripeName, StatusCode: serr.HTTPStatusCode, Message: msg}
	}
	return err
}
