package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные переменные для общих ошибок домена.
*/

// ErrNotFound - оборачивает ошибку репозитория (например, ErrEndpointNotFound) в 404
func ErrNotFound(err error) *AppError {
	msg := "Resource not found"
	if err != nil {
		msg = capitalize(err.Error())
	}
	return Wrap(err, CodeNotFound, "resource", msg, http.StatusNotFound)
}

// ErrConflict - нарушение уникальности или недопустимый переход состояния (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidStatus - невалидное значение статуса (400)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusBadRequest)
}

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid username/email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrAuthenticationRequired = New(
	CodeUnauthorized,
	"auth",
	"Authentication credentials were not provided",
	http.StatusUnauthorized,
)

var ErrPermissionDenied = New(
	CodeForbidden,
	"auth",
	"You do not have permission to perform this action",
	http.StatusForbidden,
)

var ErrPremiumRequired = New(
	CodeForbidden,
	"auth",
	"Premium subscription required",
	http.StatusForbidden,
)

var ErrUserInactive = New(
	CodeUnauthorized,
	"auth",
	"User account is disabled",
	http.StatusUnauthorized,
)

var ErrAlreadyExists = New(
	CodeAlreadyExists,
	"resource",
	"Resource already exists",
	http.StatusConflict,
)

var ErrTooManyRequests = New(
	CodeLimitExceeded,
	"throttle",
	"Request was throttled. Try again later",
	http.StatusTooManyRequests,
)

// --- Payments ---

var ErrInvalidPaymentMethod = New(
	CodeValidationFailed,
	"payment",
	"Invalid payment method",
	http.StatusBadRequest,
)

var ErrPaymentNotPending = New(
	CodeConflict,
	"payment",
	"Payment is already finalized",
	http.StatusConflict,
)

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
