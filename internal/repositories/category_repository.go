package repositories

import (
	"errors"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	Create(db *gorm.DB, category *models.Category) error
	FindBySlug(db *gorm.DB, slug string, includeDeleted bool) (*models.Category, error)
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Category, error)
	// SlugExists сравнивает без учета регистра по всем строкам, включая удаленные
	SlugExists(db *gorm.DB, slug string) (bool, error)
	NameTaken(db *gorm.DB, name, exceptID string) (bool, error)
	Update(db *gorm.DB, category *models.Category) error
	List(db *gorm.DB, page Page) ([]models.Category, int64, error)
	ListDeleted(db *gorm.DB, page Page) ([]models.Category, int64, error)
}

type categoryRepository struct{}

func NewCategoryRepository() CategoryRepository {
	return &categoryRepository{}
}

func (r *categoryRepository) Create(db *gorm.DB, category *models.Category) error {
	return translateWrite(db.Create(category).Error)
}

func (r *categoryRepository) FindBySlug(db *gorm.DB, slug string, includeDeleted bool) (*models.Category, error) {
	var category models.Category
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("slug = ?", slug).First(&category).Error
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	return &category, nil
}

func (r *categoryRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Category, error) {
	var category models.Category
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	return &category, nil
}

func (r *categoryRepository) SlugExists(db *gorm.DB, slug string) (bool, error) {
	var count int64
	err := db.Model(&models.Category{}).Where("LOWER(slug) = LOWER(?)", slug).Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) NameTaken(db *gorm.DB, name, exceptID string) (bool, error) {
	query := db.Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) Update(db *gorm.DB, category *models.Category) error {
	return translateWrite(db.Save(category).Error)
}

func (r *categoryRepository) List(db *gorm.DB, page Page) ([]models.Category, int64, error) {
	var categories []models.Category
	query := db.Model(&models.Category{}).Scopes(lifecycle.Scope(false)).Order("name ASC")
	total, err := findPage(query, page, &categories)
	return categories, total, err
}

func (r *categoryRepository) ListDeleted(db *gorm.DB, page Page) ([]models.Category, int64, error) {
	var categories []models.Category
	query := db.Model(&models.Category{}).Scopes(lifecycle.OnlyDeleted).Order("deleted_at DESC")
	total, err := findPage(query, page, &categories)
	return categories, total, err
}
