package apperrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError - основная структура ошибки приложения
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Domain   string      `json:"domain"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = PickMessage(e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s (%v)", e.Domain, e.Code, msg, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Domain, e.Code, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New - базовый конструктор
func New(code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// Wrap - оборачивает существующую ошибку в AppError
func Wrap(err error, code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// WithDetails возвращает копию ошибки с деталями.
// Копия нужна, чтобы не портить предопределенные переменные (ErrInvalidToken и т.п.).
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// MarshalJSON - для логов и отладки
func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Domain  string      `json:"domain"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Domain:  e.Domain,
		Message: e.Message,
		Details: e.Details,
	})
}

// Is - обертка над стандартной функцией errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As - обертка над стандартной функцией errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// =========================================================================
// Конструкторы таксономии
// =========================================================================

// InternalError - ошибка хранилища или непредвиденный сбой (500)
func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "internal", "Internal server error", http.StatusInternalServerError)
}

// DatabaseError - хранилище недоступно (500)
func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "storage", "Storage error", http.StatusInternalServerError)
}

// ValidationError - ошибка валидации запроса с деталями по полям
func ValidationError(details interface{}) *AppError {
	return New(CodeValidationFailed, "validation", "Validation failed", http.StatusBadRequest).WithDetails(details)
}

// InvalidInput - ошибка бизнес-валидации.
// Message пустой: переводчик возьмет его из details.
func InvalidInput(details interface{}) *AppError {
	return New(CodeValidationFailed, "validation", "", http.StatusBadRequest).WithDetails(details)
}

// NewUnauthorizedError создает ошибку аутентификации
func NewUnauthorizedError(message string) *AppError {
	return New(CodeUnauthorized, "auth", message, http.StatusUnauthorized)
}

// NewForbiddenError создает ошибку доступа
func NewForbiddenError(message string) *AppError {
	return New(CodeForbidden, "auth", message, http.StatusForbidden)
}

// NewBadRequestError создает ошибку 400
func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, "request", message, http.StatusBadRequest)
}

// NewNotFoundError создает ошибку 404 для домена
func NewNotFoundError(domain, message string) *AppError {
	return New(CodeNotFound, domain, message, http.StatusNotFound)
}

// GatewayError - сбой внешнего платежного провайдера.
// Отдается как 400 с сообщением провайдера.
func GatewayError(provider string, err error) *AppError {
	msg := provider + " error"
	if err != nil {
		msg = fmt.Sprintf("%s error: %s", provider, err.Error())
	}
	return Wrap(err, CodeExternalServiceError, "payment", msg, http.StatusBadRequest)
}
