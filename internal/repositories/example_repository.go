package repositories

import (
	"errors"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrExampleNotFound = errors.New("example not found")

type ExampleRepository interface {
	Create(db *gorm.DB, example *models.Example) error
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Example, error)
	Update(db *gorm.DB, example *models.Example) error
	// List: пустой endpointID - все примеры
	List(db *gorm.DB, endpointID string, page Page) ([]models.Example, int64, error)
	ListByEndpoint(db *gorm.DB, endpointID string) ([]models.Example, error)
}

type exampleRepository struct{}

func NewExampleRepository() ExampleRepository {
	return &exampleRepository{}
}

func (r *exampleRepository) Create(db *gorm.DB, example *models.Example) error {
	return translateWrite(db.Create(example).Error)
}

func (r *exampleRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Example, error) {
	var example models.Example
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("id = ?", id).First(&example).Error
	if err != nil {
		return nil, notFound(err, ErrExampleNotFound)
	}
	return &example, nil
}

func (r *exampleRepository) Update(db *gorm.DB, example *models.Example) error {
	return translateWrite(db.Save(example).Error)
}

func (r *exampleRepository) List(db *gorm.DB, endpointID string, page Page) ([]models.Example, int64, error) {
	var examples []models.Example
	query := db.Model(&models.Example{}).Scopes(lifecycle.Scope(false))
	if endpointID != "" {
		query = query.Where("endpoint_id = ?", endpointID)
	}
	total, err := findPage(query.Order("language ASC, request_type ASC"), page, &examples)
	return examples, total, err
}

func (r *exampleRepository) ListByEndpoint(db *gorm.DB, endpointID string) ([]models.Example, error) {
	var examples []models.Example
	err := db.Scopes(lifecycle.Scope(false)).
		Where("endpoint_id = ?", endpointID).
		Order("language ASC, request_type ASC").
		Find(&examples).Error
	return examples, err
}
