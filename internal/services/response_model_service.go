package services

import (
	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const defaultMediaType = "application/json"

type ResponseModelService interface {
	List(db *gorm.DB, endpointSlug string, page repositories.Page) (*PageResult[models.ResponseModel], error)
	Get(db *gorm.DB, id string) (*models.ResponseModel, error)
	Create(db *gorm.DB, req *dto.CreateResponseModelRequest) (*models.ResponseModel, error)
	Update(db *gorm.DB, id string, req *dto.UpdateResponseModelRequest) (*models.ResponseModel, error)
	Delete(db *gorm.DB, id string) error
}

type responseModelService struct {
	repo         repositories.ResponseModelRepository
	endpointRepo repositories.EndpointRepository
	lifecycle    *lifecycle.Manager
}

func NewResponseModelService(repo repositories.ResponseModelRepository, endpointRepo repositories.EndpointRepository, lm *lifecycle.Manager) ResponseModelService {
	return &responseModelService{repo: repo, endpointRepo: endpointRepo, lifecycle: lm}
}

func (s *responseModelService) List(db *gorm.DB, endpointSlug string, page repositories.Page) (*PageResult[models.ResponseModel], error) {
	endpointID, err := endpointFilterID(db, s.endpointRepo, endpointSlug)
	if err != nil {
		return nil, err
	}
	if endpointID == noMatch {
		return newPage[models.ResponseModel](nil, 0, page), nil
	}
	items, total, err := s.repo.List(db, endpointID, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *responseModelService) Get(db *gorm.DB, id string) (*models.ResponseModel, error) {
	if err := checkID(id, repositories.ErrResponseModelNotFound); err != nil {
		return nil, err
	}
	response, err := s.repo.FindByID(db, id, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return response, nil
}

func (s *responseModelService) Create(db *gorm.DB, req *dto.CreateResponseModelRequest) (*models.ResponseModel, error) {
	endpoint, err := endpointForChild(db, s.endpointRepo, req.Endpoint)
	if err != nil {
		return nil, err
	}
	headers, err := jsonObject("headers", req.Headers)
	if err != nil {
		return nil, err
	}
	body, err := jsonValue("body", req.Body)
	if err != nil {
		return nil, err
	}

	response := &models.ResponseModel{
		EndpointID: endpoint.ID,
		StatusCode: req.StatusCode,
		MediaType:  req.MediaType,
		Headers:    headers,
		Body:       body,
	}
	if response.StatusCode == 0 {
		response.StatusCode = 200
	}
	if response.MediaType == "" {
		response.MediaType = defaultMediaType
	}
	if err := s.repo.Create(db, response); err != nil {
		return nil, mapRepoError(err)
	}
	return response, nil
}

func (s *responseModelService) Update(db *gorm.DB, id string, req *dto.UpdateResponseModelRequest) (*models.ResponseModel, error) {
	response, err := s.Get(db, id)
	if err != nil {
		return nil, err
	}
	if req.StatusCode != nil {
		response.StatusCode = *req.StatusCode
	}
	if req.MediaType != nil && *req.MediaType != "" {
		response.MediaType = *req.MediaType
	}
	if req.Headers != nil {
		if response.Headers, err = jsonObject("headers", req.Headers); err != nil {
			return nil, err
		}
	}
	if req.Body != nil {
		if response.Body, err = jsonValue("body", req.Body); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(db, response); err != nil {
		return nil, mapRepoError(err)
	}
	return response, nil
}

func (s *responseModelService) Delete(db *gorm.DB, id string) error {
	response, err := s.Get(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, response); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}
