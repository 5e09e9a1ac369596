package repositories

import (
	"errors"
	"time"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrUsageNotFound = errors.New("usage record not found")

// UsageFilter - фильтры журнала обращений
type UsageFilter struct {
	UserID         string
	Username       string
	EndpointID     string
	SubscriptionID string
	StatusCode     int
	Since          *time.Time
}

// UsageRepository - журнал обращений, только добавление
type UsageRepository interface {
	Create(db *gorm.DB, usage *models.Usage) error
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Usage, error)
	// FindForUser не раскрывает чужие записи
	FindForUser(db *gorm.DB, id, userID string) (*models.Usage, error)
	List(db *gorm.DB, filter UsageFilter, page Page) ([]models.Usage, int64, error)
	Count(db *gorm.DB, filter UsageFilter) (int64, error)
}

type usageRepository struct{}

func NewUsageRepository() UsageRepository {
	return &usageRepository{}
}

func (r *usageRepository) Create(db *gorm.DB, usage *models.Usage) error {
	return db.Create(usage).Error
}

func (r *usageRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Usage, error) {
	var usage models.Usage
	err := db.Scopes(lifecycle.Scope(includeDeleted)).
		Preload("Subscription.Endpoint").
		Where("id = ?", id).
		First(&usage).Error
	if err != nil {
		return nil, notFound(err, ErrUsageNotFound)
	}
	return &usage, nil
}

func (r *usageRepository) FindForUser(db *gorm.DB, id, userID string) (*models.Usage, error) {
	var usage models.Usage
	err := r.filtered(db, UsageFilter{UserID: userID}).
		Preload("Subscription.Endpoint").
		Where("usages.id = ?", id).
		First(&usage).Error
	if err != nil {
		return nil, notFound(err, ErrUsageNotFound)
	}
	return &usage, nil
}

func (r *usageRepository) List(db *gorm.DB, filter UsageFilter, page Page) ([]models.Usage, int64, error) {
	var usages []models.Usage
	query := r.filtered(db, filter).Order("usages.request_time DESC")
	total, err := findPage(query, page, &usages, "Subscription.Endpoint")
	return usages, total, err
}

func (r *usageRepository) Count(db *gorm.DB, filter UsageFilter) (int64, error) {
	var count int64
	err := r.filtered(db, filter).Count(&count).Error
	return count, err
}

func (r *usageRepository) filtered(db *gorm.DB, filter UsageFilter) *gorm.DB {
	query := db.Model(&models.Usage{}).Scopes(lifecycle.ScopeFor("usages", false))
	if filter.UserID != "" || filter.EndpointID != "" || filter.Username != "" {
		query = query.Joins("JOIN subscriptions ON subscriptions.id = usages.subscription_id")
		if filter.UserID != "" {
			query = query.Where("subscriptions.user_id = ?", filter.UserID)
		}
		if filter.EndpointID != "" {
			query = query.Where("subscriptions.endpoint_id = ?", filter.EndpointID)
		}
		if filter.Username != "" {
			query = query.Joins("JOIN users ON users.id = subscriptions.user_id").
				Where("LOWER(users.username) = LOWER(?)", filter.Username)
		}
	}
	if filter.StatusCode > 0 {
		query = query.Where("usages.status_code = ?", filter.StatusCode)
	}
	if filter.SubscriptionID != "" {
		query = query.Where("usages.subscription_id = ?", filter.SubscriptionID)
	}
	if filter.Since != nil {
		query = query.Where("usages.request_time >= ?", *filter.Since)
	}
	return query
}
