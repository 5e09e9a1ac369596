package services

import (
	"context"
	"errors"

	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mapRepoError переводит ошибки репозиториев в AppError
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrCategoryNotFound),
		errors.Is(err, repositories.ErrEndpointNotFound),
		errors.Is(err, repositories.ErrExampleNotFound),
		errors.Is(err, repositories.ErrResponseModelNotFound),
		errors.Is(err, repositories.ErrMediaNotFound),
		errors.Is(err, repositories.ErrSubscriptionNotFound),
		errors.Is(err, repositories.ErrUsageNotFound),
		errors.Is(err, repositories.ErrPlanNotFound),
		errors.Is(err, repositories.ErrUserSubscriptionNotFound),
		errors.Is(err, repositories.ErrPaymentNotFound):
		return apperrors.ErrNotFound(err)
	case errors.Is(err, repositories.ErrDuplicate):
		return apperrors.ErrConflict(err, "storage", "Resource already exists")
	}
	return apperrors.InternalError(err)
}

// ctxOf - контекст запроса, привязанный к *gorm.DB через WithContext
func ctxOf(db *gorm.DB) context.Context {
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}

// fieldError - ошибка бизнес-валидации одного поля
func fieldError(field, message string) *apperrors.AppError {
	return apperrors.InvalidInput(map[string][]string{field: {message}})
}

// isUUID - id в postgres имеет тип uuid, сравнение с произвольной строкой падает
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// checkID: невалидный uuid в пути - это просто отсутствующая запись
func checkID(id string, sentinel error) error {
	if !isUUID(id) {
		return apperrors.ErrNotFound(sentinel)
	}
	return nil
}
