package repositories

import (
	"errors"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrMediaNotFound = errors.New("media not found")

type MediaRepository interface {
	Create(db *gorm.DB, media *models.Media) error
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Media, error)
	Update(db *gorm.DB, media *models.Media) error
	List(db *gorm.DB, endpointID string, page Page) ([]models.Media, int64, error)
	ListByEndpoint(db *gorm.DB, endpointID string) ([]models.Media, error)
}

type mediaRepository struct{}

func NewMediaRepository() MediaRepository {
	return &mediaRepository{}
}

func (r *mediaRepository) Create(db *gorm.DB, media *models.Media) error {
	return translateWrite(db.Create(media).Error)
}

func (r *mediaRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Media, error) {
	var media models.Media
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("id = ?", id).First(&media).Error
	if err != nil {
		return nil, notFound(err, ErrMediaNotFound)
	}
	return &media, nil
}

func (r *mediaRepository) Update(db *gorm.DB, media *models.Media) error {
	return translateWrite(db.Save(media).Error)
}

func (r *mediaRepository) List(db *gorm.DB, endpointID string, page Page) ([]models.Media, int64, error) {
	var items []models.Media
	query := db.Model(&models.Media{}).Scopes(lifecycle.Scope(false))
	if endpointID != "" {
		query = query.Where("endpoint_id = ?", endpointID)
	}
	total, err := findPage(query.Order("created_at DESC"), page, &items)
	return items, total, err
}

func (r *mediaRepository) ListByEndpoint(db *gorm.DB, endpointID string) ([]models.Media, error) {
	var items []models.Media
	err := db.Scopes(lifecycle.Scope(false)).
		Where("endpoint_id = ?", endpointID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
