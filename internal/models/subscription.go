package models

import (
	"time"

	"gorm.io/gorm"
)

type SubscriptionPlan struct {
	BaseModel
	Name         string  `gorm:"size:50;not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	Price        float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	DurationDays int     `gorm:"not null" json:"duration_days"`
	IsActive     bool    `gorm:"not null" json:"is_active"`
}

func (SubscriptionPlan) TableName() string { return "subscription_plans" }

// IsFree - план без оплаты, на него можно подписаться напрямую
func (p *SubscriptionPlan) IsFree() bool {
	return p.Price <= 0
}

// UserSubscription - подписка пользователя на план
type UserSubscription struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_subscription_user_plan" json:"user_id"`
	PlanID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_subscription_user_plan" json:"plan_id"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null;index" json:"end_date"`
	Active    bool      `gorm:"not null" json:"active"`
	PaymentID *string   `gorm:"size:100" json:"payment_id"`

	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (UserSubscription) TableName() string { return "user_subscriptions" }

// BeforeSave - истекшая подписка не может быть активной
func (s *UserSubscription) BeforeSave(tx *gorm.DB) error {
	if !s.EndDate.IsZero() && s.EndDate.Before(time.Now()) {
		s.Active = false
	}
	return nil
}
