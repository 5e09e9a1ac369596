package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"apimarket_backend/internal/models"
)

// ErrUnknownMethod - для метода оплаты не зарегистрирован шлюз
var ErrUnknownMethod = errors.New("unknown payment method")

// ErrReferenceMismatch - ссылка шлюза не относится к этому платежу
var ErrReferenceMismatch = errors.New("gateway reference does not belong to this payment")

type OrderRequest struct {
	AmountMinor int64
	Currency    string
	// Reference - наш transaction_id, передается шлюзу как receipt/metadata
	Reference string
}

type Order struct {
	Reference    string
	ClientSecret string
}

type VerifyRequest struct {
	// TransactionID - наш transaction_id, сверяется с metadata шлюза
	TransactionID  string
	OrderReference string
	PaymentID      string
	Signature      string
}

type VerifyResult struct {
	Succeeded bool
	Status    string
}

// Gateway - внешний платежный провайдер с контрактом create/verify
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

// ProviderError - ответ провайдера с ошибкой
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// Registry сопоставляет метод оплаты и шлюз
type Registry struct {
	gateways map[models.PaymentMethod]Gateway
}

func NewRegistry() *Registry {
	return &Registry{gateways: make(map[models.PaymentMethod]Gateway)}
}

func (r *Registry) Register(method models.PaymentMethod, gw Gateway) {
	r.gateways[method] = gw
}

func (r *Registry) Get(method models.PaymentMethod) (Gateway, error) {
	gw, ok := r.gateways[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return gw, nil
}

// ToMinorUnits переводит сумму в минимальные единицы валюты (x100)
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
