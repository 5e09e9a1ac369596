package models

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription - доступ пользователя к одному эндпоинту и счетчик обращений
type Subscription struct {
	BaseModel
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_user_endpoint" json:"user_id"`
	EndpointID string    `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_user_endpoint" json:"endpoint_id"`
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`
	AccessedAt time.Time `json:"accessed_at"`

	Endpoint *Endpoint `gorm:"foreignKey:EndpointID" json:"endpoint,omitempty"`
}

func (Subscription) TableName() string { return "subscriptions" }

// Usage - неизменяемая запись об одном отслеживаемом запросе
type Usage struct {
	BaseModel
	SubscriptionID string         `gorm:"type:uuid;not null;index" json:"subscription_id"`
	RequestTime    time.Time      `gorm:"not null;index" json:"request_time"`
	StatusCode     int            `gorm:"not null;default:200" json:"status_code"`
	Method         string         `gorm:"size:10;not null;default:'GET'" json:"method"`
	Path           string         `json:"path"`
	RequestBody    datatypes.JSON `json:"request_body"`
	QueryParams    datatypes.JSON `json:"query_params"`

	Subscription *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
}

func (Usage) TableName() string { return "usages" }
