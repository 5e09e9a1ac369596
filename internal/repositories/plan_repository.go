package repositories

import (
	"errors"
	"time"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPlanNotFound             = errors.New("subscription plan not found")
	ErrUserSubscriptionNotFound = errors.New("user subscription not found")
)

// UserSubscriptionFilter - фильтры списка подписок на планы
type UserSubscriptionFilter struct {
	UserID     string
	PlanID     string
	ActiveOnly bool
}

// PlanRepository - тарифные планы и подписки пользователей на них
type PlanRepository interface {
	CreatePlan(db *gorm.DB, plan *models.SubscriptionPlan) error
	FindPlanByID(db *gorm.DB, id string, includeDeleted bool) (*models.SubscriptionPlan, error)
	// FindActivePlan - живой план с is_active=true
	FindActivePlan(db *gorm.DB, id string) (*models.SubscriptionPlan, error)
	UpdatePlan(db *gorm.DB, plan *models.SubscriptionPlan) error
	ListPlans(db *gorm.DB, activeOnly bool, page Page) ([]models.SubscriptionPlan, int64, error)

	CreateUserSubscription(db *gorm.DB, sub *models.UserSubscription) error
	FindUserSubscriptionByID(db *gorm.DB, id string, includeDeleted bool) (*models.UserSubscription, error)
	FindUserSubscription(db *gorm.DB, userID, planID string, includeDeleted bool) (*models.UserSubscription, error)
	UpdateUserSubscription(db *gorm.DB, sub *models.UserSubscription) error
	ListUserSubscriptions(db *gorm.DB, filter UserSubscriptionFilter, page Page) ([]models.UserSubscription, int64, error)
	// ExpireEnded выключает подписки с end_date в прошлом
	ExpireEnded(db *gorm.DB, now time.Time) (int64, error)
}

type planRepository struct{}

func NewPlanRepository() PlanRepository {
	return &planRepository{}
}

func (r *planRepository) CreatePlan(db *gorm.DB, plan *models.SubscriptionPlan) error {
	return translateWrite(db.Create(plan).Error)
}

func (r *planRepository) FindPlanByID(db *gorm.DB, id string, includeDeleted bool) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	return &plan, nil
}

func (r *planRepository) FindActivePlan(db *gorm.DB, id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := db.Scopes(lifecycle.Scope(false)).
		Where("id = ? AND is_active = ?", id, true).
		First(&plan).Error
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	return &plan, nil
}

func (r *planRepository) UpdatePlan(db *gorm.DB, plan *models.SubscriptionPlan) error {
	return translateWrite(db.Save(plan).Error)
}

func (r *planRepository) ListPlans(db *gorm.DB, activeOnly bool, page Page) ([]models.SubscriptionPlan, int64, error) {
	var plans []models.SubscriptionPlan
	query := db.Model(&models.SubscriptionPlan{}).Scopes(lifecycle.Scope(false))
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	total, err := findPage(query.Order("price ASC, name ASC"), page, &plans)
	return plans, total, err
}

func (r *planRepository) CreateUserSubscription(db *gorm.DB, sub *models.UserSubscription) error {
	return translateWrite(db.Omit("Plan").Create(sub).Error)
}

func (r *planRepository) FindUserSubscriptionByID(db *gorm.DB, id string, includeDeleted bool) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := db.Scopes(lifecycle.Scope(includeDeleted)).
		Preload("Plan").
		Where("id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, notFound(err, ErrUserSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *planRepository) FindUserSubscription(db *gorm.DB, userID, planID string, includeDeleted bool) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := db.Scopes(lifecycle.Scope(includeDeleted)).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		First(&sub).Error
	if err != nil {
		return nil, notFound(err, ErrUserSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *planRepository) UpdateUserSubscription(db *gorm.DB, sub *models.UserSubscription) error {
	return translateWrite(db.Omit("Plan").Save(sub).Error)
}

func (r *planRepository) ListUserSubscriptions(db *gorm.DB, filter UserSubscriptionFilter, page Page) ([]models.UserSubscription, int64, error) {
	var subs []models.UserSubscription
	query := db.Model(&models.UserSubscription{}).Scopes(lifecycle.Scope(false))
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.PlanID != "" {
		query = query.Where("plan_id = ?", filter.PlanID)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ? AND end_date > ?", true, time.Now().UTC())
	}
	total, err := findPage(query.Order("end_date DESC"), page, &subs, "Plan")
	return subs, total, err
}

func (r *planRepository) ExpireEnded(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.UserSubscription{}).
		Where("active = ? AND end_date < ?", true, now).
		UpdateColumn("active", false)
	return result.RowsAffected, result.Error
}
