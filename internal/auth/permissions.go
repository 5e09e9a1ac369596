package auth

import "apimarket_backend/internal/models"

// IsAuthenticated - есть активный пользователь (бесплатный или премиум)
func IsAuthenticated(u *models.User) bool {
	return u != nil && u.ID != "" && u.IsActive
}

// IsAdmin - is_staff или is_superuser
func IsAdmin(u *models.User) bool {
	return IsAuthenticated(u) && (u.IsStaff || u.IsSuperuser)
}

// IsPremium - пользователь с оплаченным доступом
func IsPremium(u *models.User) bool {
	return IsAuthenticated(u) && u.IsPremium
}
