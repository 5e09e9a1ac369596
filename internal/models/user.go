package models

import "time"

type User struct {
	BaseModel
	Username      string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email         string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	IsPremium     bool   `gorm:"not null;default:false" json:"is_premium"`
	Avatar        string `json:"avatar"`
	EmailVerified bool   `gorm:"not null;default:false" json:"email_verified"`
	IsStaff       bool   `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser   bool   `gorm:"not null;default:false" json:"is_superuser"`
	IsActive      bool   `gorm:"not null" json:"is_active"`
}

func (User) TableName() string { return "users" }

// BlacklistedToken - отозванный refresh-токен (по jti)
type BlacklistedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func (BlacklistedToken) TableName() string { return "blacklisted_tokens" }
