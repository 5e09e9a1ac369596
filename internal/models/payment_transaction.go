package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

type Payment struct {
	BaseModel
	UserID        string         `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID        string         `gorm:"type:uuid;not null;index" json:"plan_id"`
	TransactionID string         `gorm:"size:64;uniqueIndex;not null" json:"transaction_id"`
	Amount        float64        `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string         `gorm:"size:3;not null;default:'INR'" json:"currency"`
	PaymentMethod PaymentMethod  `gorm:"size:20;not null" json:"payment_method"`
	Status        PaymentStatus  `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Metadata      datatypes.JSON `json:"metadata"`

	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (Payment) TableName() string { return "payments" }

// CanTransition - допустимы только pending -> completed и pending -> failed
func (p *Payment) CanTransition(to PaymentStatus) bool {
	return p.Status == PaymentStatusPending && to.Terminal()
}

// MetadataMap возвращает metadata как map (пустую, если не задана)
func (p *Payment) MetadataMap() map[string]interface{} {
	out := map[string]interface{}{}
	if len(p.Metadata) == 0 {
		return out
	}
	_ = json.Unmarshal(p.Metadata, &out)
	return out
}

// MergeMetadata дописывает ключи в metadata
func (p *Payment) MergeMetadata(values map[string]interface{}) error {
	current := p.MetadataMap()
	for k, v := range values {
		current[k] = v
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return err
	}
	p.Metadata = datatypes.JSON(raw)
	return nil
}

// MetadataString - строковое значение из metadata
func (p *Payment) MetadataString(key string) string {
	if v, ok := p.MetadataMap()[key].(string); ok {
		return v
	}
	return ""
}
