package repositories

import (
	"time"

	"apimarket_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository - хранилище отозванных refresh-токенов (по jti)
type TokenRepository interface {
	// Blacklist идемпотентен: повторный отзыв того же jti не ошибка
	Blacklist(db *gorm.DB, jti string, expiresAt time.Time) error
	IsBlacklisted(db *gorm.DB, jti string) (bool, error)
	// CleanExpired удаляет записи, срок которых все равно истек
	CleanExpired(db *gorm.DB, now time.Time) (int64, error)
}

type tokenRepository struct{}

func NewTokenRepository() TokenRepository {
	return &tokenRepository{}
}

func (r *tokenRepository) Blacklist(db *gorm.DB, jti string, expiresAt time.Time) error {
	entry := models.BlacklistedToken{JTI: jti, ExpiresAt: expiresAt}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

func (r *tokenRepository) IsBlacklisted(db *gorm.DB, jti string) (bool, error) {
	var count int64
	err := db.Model(&models.BlacklistedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

func (r *tokenRepository) CleanExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ?", now).Delete(&models.BlacklistedToken{})
	return result.RowsAffected, result.Error
}
