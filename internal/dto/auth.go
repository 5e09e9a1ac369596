package dto

import (
	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/models"
)

// RegisterRequest - запрос регистрации. is_premium клиентом не задается.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest - вход по username или email
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User   *models.User    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

type RefreshTokenRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=150"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=500"`
}
