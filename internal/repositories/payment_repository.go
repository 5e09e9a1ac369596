package repositories

import (
	"errors"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentStatusChanged - платеж уже не в том статусе, из которого ожидался переход
	ErrPaymentStatusChanged = errors.New("payment status changed concurrently")
)

// PaymentFilter - фильтры списков платежей
type PaymentFilter struct {
	UserID        string
	Status        models.PaymentStatus
	PaymentMethod models.PaymentMethod
}

type PaymentRepository interface {
	Create(db *gorm.DB, payment *models.Payment) error
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Payment, error)
	FindByTransactionID(db *gorm.DB, transactionID string) (*models.Payment, error)
	UpdateMetadata(db *gorm.DB, id string, metadata datatypes.JSON) error
	// Transition меняет статус только если текущий равен from
	Transition(db *gorm.DB, payment *models.Payment, to models.PaymentStatus) error
	List(db *gorm.DB, filter PaymentFilter, page Page) ([]models.Payment, int64, error)
}

type paymentRepository struct{}

func NewPaymentRepository() PaymentRepository {
	return &paymentRepository{}
}

func (r *paymentRepository) Create(db *gorm.DB, payment *models.Payment) error {
	return translateWrite(db.Omit("Plan").Create(payment).Error)
}

func (r *paymentRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Payment, error) {
	var payment models.Payment
	err := db.Scopes(lifecycle.Scope(includeDeleted)).
		Preload("Plan").
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return &payment, nil
}

func (r *paymentRepository) FindByTransactionID(db *gorm.DB, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := db.Scopes(lifecycle.Scope(false)).
		Preload("Plan").
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return &payment, nil
}

func (r *paymentRepository) UpdateMetadata(db *gorm.DB, id string, metadata datatypes.JSON) error {
	return db.Model(&models.Payment{}).Where("id = ?", id).Update("metadata", metadata).Error
}

func (r *paymentRepository) Transition(db *gorm.DB, payment *models.Payment, to models.PaymentStatus) error {
	result := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, payment.Status).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentStatusChanged
	}
	payment.Status = to
	return nil
}

func (r *paymentRepository) List(db *gorm.DB, filter PaymentFilter, page Page) ([]models.Payment, int64, error) {
	var payments []models.Payment
	query := db.Model(&models.Payment{}).Scopes(lifecycle.Scope(false))
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	total, err := findPage(query.Order("created_at DESC"), page, &payments, "Plan")
	return payments, total, err
}
