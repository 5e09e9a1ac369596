package dto

import "apimarket_backend/internal/models"

type CreatePaymentRequest struct {
	PlanID        string `json:"plan_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,is-payment-method"`
}

// CreatePaymentResponse - данные для checkout на клиенте
type CreatePaymentResponse struct {
	TransactionID string               `json:"transaction_id"`
	OrderID       string               `json:"order_id"`
	ClientSecret  string               `json:"client_secret,omitempty"`
	KeyID         string               `json:"key_id,omitempty"`
	Amount        float64              `json:"amount"`
	Currency      string               `json:"currency"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Status        models.PaymentStatus `json:"status"`
}

// VerifyPaymentRequest: razorpay_signature нужен только для razorpay
type VerifyPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	PaymentID     string `json:"payment_id"`
	Signature     string `json:"razorpay_signature"`
}

type VerifyPaymentResponse struct {
	TransactionID string               `json:"transaction_id"`
	Status        models.PaymentStatus `json:"status"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required,is-payment-status"`
}
