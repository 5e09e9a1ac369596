package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// ErrDuplicate - нарушение уникального ограничения при записи
var ErrDuplicate = errors.New("duplicate key")

// IsDuplicate распознает нарушение уникальности для postgres и sqlite
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// translateWrite приводит ошибку записи к ErrDuplicate, если это нарушение уникальности
func translateWrite(err error) error {
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// notFound подменяет gorm.ErrRecordNotFound доменной ошибкой
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
