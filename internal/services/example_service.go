package services

import (
	"errors"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type ExampleService interface {
	// List: endpointSlug фильтрует по эндпоинту, пустой - все
	List(db *gorm.DB, endpointSlug string, page repositories.Page) (*PageResult[models.Example], error)
	Get(db *gorm.DB, id string) (*models.Example, error)
	Create(db *gorm.DB, req *dto.CreateExampleRequest) (*models.Example, error)
	Update(db *gorm.DB, id string, req *dto.UpdateExampleRequest) (*models.Example, error)
	Delete(db *gorm.DB, id string) error
}

type exampleService struct {
	repo         repositories.ExampleRepository
	endpointRepo repositories.EndpointRepository
	lifecycle    *lifecycle.Manager
}

func NewExampleService(repo repositories.ExampleRepository, endpointRepo repositories.EndpointRepository, lm *lifecycle.Manager) ExampleService {
	return &exampleService{repo: repo, endpointRepo: endpointRepo, lifecycle: lm}
}

func (s *exampleService) List(db *gorm.DB, endpointSlug string, page repositories.Page) (*PageResult[models.Example], error) {
	endpointID, err := endpointFilterID(db, s.endpointRepo, endpointSlug)
	if err != nil {
		return nil, err
	}
	if endpointID == noMatch {
		return newPage[models.Example](nil, 0, page), nil
	}
	items, total, err := s.repo.List(db, endpointID, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *exampleService) Get(db *gorm.DB, id string) (*models.Example, error) {
	if err := checkID(id, repositories.ErrExampleNotFound); err != nil {
		return nil, err
	}
	example, err := s.repo.FindByID(db, id, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return example, nil
}

func (s *exampleService) Create(db *gorm.DB, req *dto.CreateExampleRequest) (*models.Example, error) {
	endpoint, err := endpointForChild(db, s.endpointRepo, req.Endpoint)
	if err != nil {
		return nil, err
	}
	example := &models.Example{
		EndpointID:  endpoint.ID,
		Language:    req.Language,
		RequestType: req.RequestType,
		CodeSnippet: req.CodeSnippet,
	}
	if err := s.repo.Create(db, example); err != nil {
		return nil, exampleWriteError(err)
	}
	return example, nil
}

func (s *exampleService) Update(db *gorm.DB, id string, req *dto.UpdateExampleRequest) (*models.Example, error) {
	example, err := s.Get(db, id)
	if err != nil {
		return nil, err
	}
	if req.Language != nil {
		example.Language = *req.Language
	}
	if req.RequestType != nil {
		example.RequestType = *req.RequestType
	}
	if req.CodeSnippet != nil {
		example.CodeSnippet = *req.CodeSnippet
	}
	if err := s.repo.Update(db, example); err != nil {
		return nil, exampleWriteError(err)
	}
	return example, nil
}

func (s *exampleService) Delete(db *gorm.DB, id string) error {
	example, err := s.Get(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, example); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func exampleWriteError(err error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperrors.InvalidInput(map[string][]string{
			"non_field_errors": {"The fields endpoint, language, request_type must make a unique set."},
		})
	}
	return mapRepoError(err)
}

// noMatch - фильтр по несуществующему эндпоинту дает пустой список
const noMatch = "\x00"

func endpointFilterID(db *gorm.DB, repo repositories.EndpointRepository, endpointSlug string) (string, error) {
	if endpointSlug == "" {
		return "", nil
	}
	endpoint, err := repo.FindBySlug(db, endpointSlug, false)
	if err != nil {
		if errors.Is(err, repositories.ErrEndpointNotFound) {
			return noMatch, nil
		}
		return "", apperrors.InternalError(err)
	}
	return endpoint.ID, nil
}

// endpointForChild - живой эндпоинт-владелец по slug
func endpointForChild(db *gorm.DB, repo repositories.EndpointRepository, endpointSlug string) (*models.Endpoint, error) {
	endpoint, err := repo.FindBySlug(db, endpointSlug, false)
	if err != nil {
		if errors.Is(err, repositories.ErrEndpointNotFound) {
			return nil, fieldError("endpoint", "Endpoint \""+endpointSlug+"\" does not exist.")
		}
		return nil, apperrors.InternalError(err)
	}
	return endpoint, nil
}
