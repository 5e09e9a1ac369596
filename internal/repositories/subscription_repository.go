package repositories

import (
	"errors"
	"time"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionFilter - фильтры админского списка API-подписок
type SubscriptionFilter struct {
	UserID     string
	EndpointID string
}

// SubscriptionRepository - подписки пользователей на отдельные эндпоинты
type SubscriptionRepository interface {
	Create(db *gorm.DB, sub *models.Subscription) error
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Subscription, error)
	FindByUserAndEndpoint(db *gorm.DB, userID, endpointID string, includeDeleted bool) (*models.Subscription, error)
	// GetOrCreate никогда не возвращает ErrDuplicate: гонка на вставке
	// разрешается повторным поиском, удаленная строка восстанавливается
	GetOrCreate(db *gorm.DB, userID, endpointID string) (*models.Subscription, bool, error)
	// IncrementUsage атомарно увеличивает usage_count и трогает только accessed_at
	IncrementUsage(db *gorm.DB, id string, at time.Time) error
	ListByUser(db *gorm.DB, userID string, page Page) ([]models.Subscription, int64, error)
	List(db *gorm.DB, filter SubscriptionFilter, page Page) ([]models.Subscription, int64, error)
}

type subscriptionRepository struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &subscriptionRepository{}
}

func (r *subscriptionRepository) Create(db *gorm.DB, sub *models.Subscription) error {
	return translateWrite(db.Create(sub).Error)
}

func (r *subscriptionRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Scopes(lifecycle.Scope(includeDeleted)).
		Preload("Endpoint").
		Where("id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, notFound(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByUserAndEndpoint(db *gorm.DB, userID, endpointID string, includeDeleted bool) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Scopes(lifecycle.Scope(includeDeleted)).
		Where("user_id = ? AND endpoint_id = ?", userID, endpointID).
		First(&sub).Error
	if err != nil {
		return nil, notFound(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetOrCreate(db *gorm.DB, userID, endpointID string) (*models.Subscription, bool, error) {
	sub, err := r.FindByUserAndEndpoint(db, userID, endpointID, false)
	if err == nil {
		return sub, false, nil
	}
	if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, false, err
	}

	sub = &models.Subscription{
		UserID:     userID,
		EndpointID: endpointID,
		AccessedAt: time.Now().UTC(),
	}
	err = r.Create(db, sub)
	if err == nil {
		return sub, true, nil
	}
	if !errors.Is(err, ErrDuplicate) {
		return nil, false, err
	}

	// строка уже есть: вставлена параллельно или мягко удалена ранее
	sub, err = r.FindByUserAndEndpoint(db, userID, endpointID, true)
	if err != nil {
		return nil, false, err
	}
	if sub.MarkRestored() {
		err = db.Model(&models.Subscription{}).
			Where("id = ?", sub.ID).
			UpdateColumns(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error
		if err != nil {
			return nil, false, err
		}
	}
	return sub, false, nil
}

func (r *subscriptionRepository) IncrementUsage(db *gorm.DB, id string, at time.Time) error {
	result := db.Model(&models.Subscription{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + ?", 1),
			"accessed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *subscriptionRepository) ListByUser(db *gorm.DB, userID string, page Page) ([]models.Subscription, int64, error) {
	var subs []models.Subscription
	query := db.Model(&models.Subscription{}).
		Scopes(lifecycle.Scope(false)).
		Where("user_id = ?", userID).
		Order("accessed_at DESC")
	total, err := findPage(query, page, &subs, "Endpoint")
	return subs, total, err
}

func (r *subscriptionRepository) List(db *gorm.DB, filter SubscriptionFilter, page Page) ([]models.Subscription, int64, error) {
	var subs []models.Subscription
	query := db.Model(&models.Subscription{}).Scopes(lifecycle.Scope(false))
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.EndpointID != "" {
		query = query.Where("endpoint_id = ?", filter.EndpointID)
	}
	total, err := findPage(query.Order("created_at DESC"), page, &subs, "Endpoint")
	return subs, total, err
}
