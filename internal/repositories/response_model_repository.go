package repositories

import (
	"errors"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrResponseModelNotFound = errors.New("response model not found")

type ResponseModelRepository interface {
	Create(db *gorm.DB, response *models.ResponseModel) error
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.ResponseModel, error)
	Update(db *gorm.DB, response *models.ResponseModel) error
	List(db *gorm.DB, endpointID string, page Page) ([]models.ResponseModel, int64, error)
	// ListByEndpoint упорядочен по status_code
	ListByEndpoint(db *gorm.DB, endpointID string) ([]models.ResponseModel, error)
}

type responseModelRepository struct{}

func NewResponseModelRepository() ResponseModelRepository {
	return &responseModelRepository{}
}

func (r *responseModelRepository) Create(db *gorm.DB, response *models.ResponseModel) error {
	return translateWrite(db.Create(response).Error)
}

func (r *responseModelRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.ResponseModel, error) {
	var response models.ResponseModel
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("id = ?", id).First(&response).Error
	if err != nil {
		return nil, notFound(err, ErrResponseModelNotFound)
	}
	return &response, nil
}

func (r *responseModelRepository) Update(db *gorm.DB, response *models.ResponseModel) error {
	return translateWrite(db.Save(response).Error)
}

func (r *responseModelRepository) List(db *gorm.DB, endpointID string, page Page) ([]models.ResponseModel, int64, error) {
	var responses []models.ResponseModel
	query := db.Model(&models.ResponseModel{}).Scopes(lifecycle.Scope(false))
	if endpointID != "" {
		query = query.Where("endpoint_id = ?", endpointID)
	}
	total, err := findPage(query.Order("status_code ASC, created_at ASC"), page, &responses)
	return responses, total, err
}

func (r *responseModelRepository) ListByEndpoint(db *gorm.DB, endpointID string) ([]models.ResponseModel, error) {
	var responses []models.ResponseModel
	err := db.Scopes(lifecycle.Scope(false)).
		Where("endpoint_id = ?", endpointID).
		Order("status_code ASC, created_at ASC").
		Find(&responses).Error
	return responses, err
}
