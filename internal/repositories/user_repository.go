package repositories

import (
	"errors"
	"time"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.User, error)
	// FindByIdentifier ищет по username или email (без учета регистра)
	FindByIdentifier(db *gorm.DB, identifier string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	// UsernameTaken/EmailTaken проверяют и удаленные строки: уникальность сквозная
	UsernameTaken(db *gorm.DB, username, exceptID string) (bool, error)
	EmailTaken(db *gorm.DB, email, exceptID string) (bool, error)
	Update(db *gorm.DB, user *models.User) error
	SetPremium(db *gorm.DB, userID string, premium bool) error
	// ClearPremiumWithoutActivePlan снимает is_premium у обычных пользователей
	// без действующей платной подписки
	ClearPremiumWithoutActivePlan(db *gorm.DB, now time.Time) (int64, error)
	List(db *gorm.DB, page Page) ([]models.User, int64, error)
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	return translateWrite(db.Create(user).Error)
}

func (r *userRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.User, error) {
	var user models.User
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindByIdentifier(db *gorm.DB, identifier string) (*models.User, error) {
	var user models.User
	err := db.Scopes(lifecycle.Scope(false)).
		Where("username = ? OR LOWER(email) = LOWER(?)", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Scopes(lifecycle.Scope(false)).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) UsernameTaken(db *gorm.DB, username, exceptID string) (bool, error) {
	return r.taken(db, "username = ?", username, exceptID)
}

func (r *userRepository) EmailTaken(db *gorm.DB, email, exceptID string) (bool, error) {
	return r.taken(db, "LOWER(email) = LOWER(?)", email, exceptID)
}

func (r *userRepository) taken(db *gorm.DB, cond, value, exceptID string) (bool, error) {
	query := db.Model(&models.User{}).Where(cond, value)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Update(db *gorm.DB, user *models.User) error {
	return translateWrite(db.Save(user).Error)
}

func (r *userRepository) SetPremium(db *gorm.DB, userID string, premium bool) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("is_premium", premium)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ClearPremiumWithoutActivePlan(db *gorm.DB, now time.Time) (int64, error) {
	paid := db.Table("user_subscriptions AS us").
		Select("us.user_id").
		Joins("JOIN subscription_plans AS p ON p.id = us.plan_id").
		Where("us.active = ? AND us.is_deleted = ? AND us.end_date > ? AND p.price > 0", true, false, now)

	result := db.Model(&models.User{}).
		Where("is_premium = ? AND is_staff = ? AND is_superuser = ?", true, false, false).
		Where("id NOT IN (?)", paid).
		UpdateColumn("is_premium", false)
	return result.RowsAffected, result.Error
}

func (r *userRepository) List(db *gorm.DB, page Page) ([]models.User, int64, error) {
	var users []models.User
	query := db.Model(&models.User{}).Scopes(lifecycle.Scope(false)).Order("created_at DESC")
	total, err := findPage(query, page, &users)
	return users, total, err
}
