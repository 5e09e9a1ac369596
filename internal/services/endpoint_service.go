package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EndpointService interface {
	List(db *gorm.DB, filter repositories.EndpointFilter, page repositories.Page) (*PageResult[models.Endpoint], error)
	// GetDetail - эндпоинт с живыми примерами, ответами и медиа
	GetDetail(db *gorm.DB, slug string) (*models.EndpointDetail, error)
	Create(db *gorm.DB, req *dto.CreateEndpointRequest) (*models.Endpoint, error)
	Update(db *gorm.DB, slug string, req *dto.UpdateEndpointRequest) (*models.Endpoint, error)
	Delete(db *gorm.DB, slug string) error

	ListDeleted(db *gorm.DB, page repositories.Page) (*PageResult[models.Endpoint], error)
	Restore(db *gorm.DB, slug string) (*models.Endpoint, error)
	HardDelete(db *gorm.DB, slug string) error

	// Access проверяет права на обращение: премиум-эндпоинт требует премиум
	Access(db *gorm.DB, user *models.User, slug string) (*dto.EndpointAccessResponse, error)
}

type endpointService struct {
	repo         repositories.EndpointRepository
	categoryRepo repositories.CategoryRepository
	exampleRepo  repositories.ExampleRepository
	responseRepo repositories.ResponseModelRepository
	mediaRepo    repositories.MediaRepository
	lifecycle    *lifecycle.Manager
}

func NewEndpointService(
	repo repositories.EndpointRepository,
	categoryRepo repositories.CategoryRepository,
	exampleRepo repositories.ExampleRepository,
	responseRepo repositories.ResponseModelRepository,
	mediaRepo repositories.MediaRepository,
	lm *lifecycle.Manager,
) EndpointService {
	return &endpointService{
		repo:         repo,
		categoryRepo: categoryRepo,
		exampleRepo:  exampleRepo,
		responseRepo: responseRepo,
		mediaRepo:    mediaRepo,
		lifecycle:    lm,
	}
}

func (s *endpointService) List(db *gorm.DB, filter repositories.EndpointFilter, page repositories.Page) (*PageResult[models.Endpoint], error) {
	items, total, err := s.repo.List(db, filter, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *endpointService) GetDetail(db *gorm.DB, endpointSlug string) (*models.EndpointDetail, error) {
	endpoint, err := s.repo.FindBySlug(db, endpointSlug, false)
	if err != nil {
		return nil, mapRepoError(err)
	}

	detail := &models.EndpointDetail{Endpoint: *endpoint}
	if detail.Examples, err = s.exampleRepo.ListByEndpoint(db, endpoint.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if detail.Responses, err = s.responseRepo.ListByEndpoint(db, endpoint.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if detail.Media, err = s.mediaRepo.ListByEndpoint(db, endpoint.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return detail, nil
}

func (s *endpointService) Create(db *gorm.DB, req *dto.CreateEndpointRequest) (*models.Endpoint, error) {
	category, err := s.findCategory(db, req.Category)
	if err != nil {
		return nil, err
	}

	pathParams, err := jsonList("path_params", req.PathParams)
	if err != nil {
		return nil, err
	}
	queryParams, err := jsonList("query_params", req.QueryParams)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	endpointSlug, err := resolveSlug(db, name, req.Slug, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(db, candidate)
	})
	if err != nil {
		return nil, err
	}

	endpoint := &models.Endpoint{
		CategoryID:    category.ID,
		Name:          name,
		Slug:          endpointSlug,
		Description:   req.Description,
		Documentation: req.Documentation,
		Method:        models.HTTPMethod(strings.ToUpper(req.Method)),
		URL:           req.URL,
		PathParams:    pathParams,
		QueryParams:   queryParams,
		IsPremium:     req.IsPremium,
	}
	if err := s.repo.Create(db, endpoint); err != nil {
		return nil, mapRepoError(err)
	}
	endpoint.Category = category
	return endpoint, nil
}

func (s *endpointService) Update(db *gorm.DB, endpointSlug string, req *dto.UpdateEndpointRequest) (*models.Endpoint, error) {
	endpoint, err := s.repo.FindBySlug(db, endpointSlug, false)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if req.Category != nil {
		category, err := s.findCategory(db, *req.Category)
		if err != nil {
			return nil, err
		}
		endpoint.CategoryID = category.ID
		endpoint.Category = category
	}
	if req.Name != nil {
		endpoint.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		newSlug, err := changeSlug(db, endpoint.Slug, *req.Slug, func(ctx context.Context, candidate string) (bool, error) {
			return s.repo.SlugExists(db, candidate)
		})
		if err != nil {
			return nil, err
		}
		endpoint.Slug = newSlug
	}
	if req.Description != nil {
		endpoint.Description = *req.Description
	}
	if req.Documentation != nil {
		endpoint.Documentation = *req.Documentation
	}
	if req.Method != nil {
		endpoint.Method = models.HTTPMethod(strings.ToUpper(*req.Method))
	}
	if req.URL != nil {
		endpoint.URL = *req.URL
	}
	if req.PathParams != nil {
		if endpoint.PathParams, err = jsonList("path_params", req.PathParams); err != nil {
			return nil, err
		}
	}
	if req.QueryParams != nil {
		if endpoint.QueryParams, err = jsonList("query_params", req.QueryParams); err != nil {
			return nil, err
		}
	}
	if req.IsPremium != nil {
		endpoint.IsPremium = *req.IsPremium
	}

	if err := s.repo.Update(db, endpoint); err != nil {
		return nil, mapRepoError(err)
	}
	return endpoint, nil
}

// findCategory ищет живую категорию по slug, затем по id
func (s *endpointService) findCategory(db *gorm.DB, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	category, err := s.categoryRepo.FindBySlug(db, ref, false)
	if errors.Is(err, repositories.ErrCategoryNotFound) && isUUID(ref) {
		category, err = s.categoryRepo.FindByID(db, ref, false)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, fieldError("category", "Category \""+ref+"\" does not exist.")
		}
		return nil, apperrors.InternalError(err)
	}
	return category, nil
}

func (s *endpointService) Delete(db *gorm.DB, endpointSlug string) error {
	endpoint, err := s.repo.FindBySlug(db, endpointSlug, false)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.lifecycle.Delete(db, endpoint); err != nil {
		return apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctxOf(db), "Endpoint deleted", "slug", endpoint.Slug)
	return nil
}

func (s *endpointService) ListDeleted(db *gorm.DB, page repositories.Page) (*PageResult[models.Endpoint], error) {
	items, total, err := s.repo.ListDeleted(db, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *endpointService) Restore(db *gorm.DB, endpointSlug string) (*models.Endpoint, error) {
	endpoint, err := s.repo.FindBySlug(db, endpointSlug, true)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.lifecycle.Restore(db, endpoint); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return endpoint, nil
}

func (s *endpointService) HardDelete(db *gorm.DB, endpointSlug string) error {
	endpoint, err := s.repo.FindBySlug(db, endpointSlug, true)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.lifecycle.HardDelete(db, endpoint); err != nil {
		return apperrors.DatabaseError(err)
	}
	logger.CtxWarn(ctxOf(db), "Endpoint permanently deleted", "slug", endpoint.Slug, "id", endpoint.ID)
	return nil
}

func (s *endpointService) Access(db *gorm.DB, user *models.User, endpointSlug string) (*dto.EndpointAccessResponse, error) {
	if !auth.IsAuthenticated(user) {
		return nil, apperrors.ErrAuthenticationRequired
	}
	endpoint, err := s.repo.FindBySlug(db, endpointSlug, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if endpoint.IsPremium && !auth.IsPremium(user) {
		return nil, apperrors.ErrPremiumRequired
	}
	return &dto.EndpointAccessResponse{
		Endpoint:  endpoint.Slug,
		Method:    string(endpoint.Method),
		URL:       endpoint.URL,
		IsPremium: endpoint.IsPremium,
	}, nil
}

// jsonList проверяет, что параметр - JSON-массив; пустое значение - []
func jsonList(field string, raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return datatypes.JSON("[]"), nil
	}
	var items []interface{}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fieldError(field, "Expected a list of items.")
	}
	return datatypes.JSON(trimmed), nil
}

// jsonObject - то же для JSON-объекта; пустое значение - {}
func jsonObject(field string, raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return datatypes.JSON("{}"), nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, fieldError(field, "Expected a JSON object.")
	}
	return datatypes.JSON(trimmed), nil
}

// jsonValue - любой валидный JSON
func jsonValue(field string, raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return datatypes.JSON("null"), nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fieldError(field, "Value must be valid JSON.")
	}
	return datatypes.JSON(trimmed), nil
}
