package repositories

import (
	"errors"
	"strings"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrEndpointNotFound = errors.New("endpoint not found")

// EndpointFilter - фильтры публичного каталога
type EndpointFilter struct {
	CategorySlug string
	Search       string
	IsPremium    *bool
}

type EndpointRepository interface {
	Create(db *gorm.DB, endpoint *models.Endpoint) error
	FindBySlug(db *gorm.DB, slug string, includeDeleted bool) (*models.Endpoint, error)
	FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Endpoint, error)
	// FindByURLMatch - первый живой эндпоинт, чей url содержит path (без учета регистра)
	FindByURLMatch(db *gorm.DB, path string) (*models.Endpoint, error)
	SlugExists(db *gorm.DB, slug string) (bool, error)
	Update(db *gorm.DB, endpoint *models.Endpoint) error
	List(db *gorm.DB, filter EndpointFilter, page Page) ([]models.Endpoint, int64, error)
	ListDeleted(db *gorm.DB, page Page) ([]models.Endpoint, int64, error)
}

type endpointRepository struct{}

func NewEndpointRepository() EndpointRepository {
	return &endpointRepository{}
}

func (r *endpointRepository) Create(db *gorm.DB, endpoint *models.Endpoint) error {
	return translateWrite(db.Create(endpoint).Error)
}

func (r *endpointRepository) FindBySlug(db *gorm.DB, slug string, includeDeleted bool) (*models.Endpoint, error) {
	var endpoint models.Endpoint
	err := db.Scopes(lifecycle.Scope(includeDeleted)).
		Preload("Category").
		Where("slug = ?", slug).
		First(&endpoint).Error
	if err != nil {
		return nil, notFound(err, ErrEndpointNotFound)
	}
	return &endpoint, nil
}

func (r *endpointRepository) FindByID(db *gorm.DB, id string, includeDeleted bool) (*models.Endpoint, error) {
	var endpoint models.Endpoint
	err := db.Scopes(lifecycle.Scope(includeDeleted)).Where("id = ?", id).First(&endpoint).Error
	if err != nil {
		return nil, notFound(err, ErrEndpointNotFound)
	}
	return &endpoint, nil
}

func (r *endpointRepository) FindByURLMatch(db *gorm.DB, path string) (*models.Endpoint, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEndpointNotFound
	}
	var endpoint models.Endpoint
	err := db.Scopes(lifecycle.Scope(false)).
		Where(`LOWER(url) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(path))+"%").
		Order("created_at ASC").
		First(&endpoint).Error
	if err != nil {
		return nil, notFound(err, ErrEndpointNotFound)
	}
	return &endpoint, nil
}

func (r *endpointRepository) SlugExists(db *gorm.DB, slug string) (bool, error) {
	var count int64
	err := db.Model(&models.Endpoint{}).Where("LOWER(slug) = LOWER(?)", slug).Count(&count).Error
	return count > 0, err
}

func (r *endpointRepository) Update(db *gorm.DB, endpoint *models.Endpoint) error {
	return translateWrite(db.Omit("Category").Save(endpoint).Error)
}

func (r *endpointRepository) List(db *gorm.DB, filter EndpointFilter, page Page) ([]models.Endpoint, int64, error) {
	var endpoints []models.Endpoint
	query := db.Model(&models.Endpoint{}).
		Scopes(lifecycle.ScopeFor("endpoints", false))

	if filter.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = endpoints.category_id").
			Where("categories.slug = ? AND categories.is_deleted = ?", filter.CategorySlug, false)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(endpoints.name) LIKE ? OR LOWER(endpoints.description) LIKE ?", like, like)
	}
	if filter.IsPremium != nil {
		query = query.Where("endpoints.is_premium = ?", *filter.IsPremium)
	}

	total, err := findPage(query.Order("endpoints.name ASC"), page, &endpoints, "Category")
	return endpoints, total, err
}

func (r *endpointRepository) ListDeleted(db *gorm.DB, page Page) ([]models.Endpoint, int64, error) {
	var endpoints []models.Endpoint
	query := db.Model(&models.Endpoint{}).Scopes(lifecycle.OnlyDeleted).Order("deleted_at DESC")
	total, err := findPage(query, page, &endpoints)
	return endpoints, total, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует спецсимволы LIKE, чтобы путь сравнивался буквально
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
