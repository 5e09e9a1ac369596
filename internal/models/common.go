package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel - общие поля всех сущностей.
// Мягкое удаление хранится явно (IsDeleted/DeletedAt): фильтрация делается
// скоупом lifecycle.Scope, а не глобальным gorm.DeletedAt.
type BaseModel struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *BaseModel) GetID() string {
	return m.ID
}

func (m *BaseModel) Deleted() bool {
	return m.IsDeleted
}

// MarkDeleted возвращает false, если сущность уже удалена
func (m *BaseModel) MarkDeleted(now time.Time) bool {
	if m.IsDeleted {
		return false
	}
	m.IsDeleted = true
	m.DeletedAt = &now
	return true
}

// MarkRestored возвращает false, если сущность не была удалена
func (m *BaseModel) MarkRestored() bool {
	if !m.IsDeleted {
		return false
	}
	m.IsDeleted = false
	m.DeletedAt = nil
	return true
}
