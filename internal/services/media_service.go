package services

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/storage"
	"apimarket_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaUpload - загружаемый файл, отвязанный от multipart
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type MediaService interface {
	List(db *gorm.DB, endpointSlug string, page repositories.Page) (*PageResult[models.Media], error)
	Get(db *gorm.DB, id string) (*models.Media, error)
	Create(db *gorm.DB, req *dto.CreateMediaRequest, upload *MediaUpload) (*models.Media, error)
	Update(db *gorm.DB, id string, req *dto.UpdateMediaRequest) (*models.Media, error)
	Delete(db *gorm.DB, id string) error
}

type mediaService struct {
	repo         repositories.MediaRepository
	endpointRepo repositories.EndpointRepository
	storage      storage.Storage
	maxSize      int64
	lifecycle    *lifecycle.Manager
}

// NewMediaService: maxSize <= 0 - без ограничения размера
func NewMediaService(repo repositories.MediaRepository, endpointRepo repositories.EndpointRepository, store storage.Storage, maxSize int64, lm *lifecycle.Manager) MediaService {
	return &mediaService{
		repo:         repo,
		endpointRepo: endpointRepo,
		storage:      store,
		maxSize:      maxSize,
		lifecycle:    lm,
	}
}

func (s *mediaService) List(db *gorm.DB, endpointSlug string, page repositories.Page) (*PageResult[models.Media], error) {
	endpointID, err := endpointFilterID(db, s.endpointRepo, endpointSlug)
	if err != nil {
		return nil, err
	}
	if endpointID == noMatch {
		return newPage[models.Media](nil, 0, page), nil
	}
	items, total, err := s.repo.List(db, endpointID, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *mediaService) Get(db *gorm.DB, id string) (*models.Media, error) {
	if err := checkID(id, repositories.ErrMediaNotFound); err != nil {
		return nil, err
	}
	media, err := s.repo.FindByID(db, id, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return media, nil
}

func (s *mediaService) Create(db *gorm.DB, req *dto.CreateMediaRequest, upload *MediaUpload) (*models.Media, error) {
	if upload == nil || upload.Reader == nil {
		return nil, fieldError("file", "No file was submitted.")
	}
	if upload.Size == 0 {
		return nil, fieldError("file", "The submitted file is empty.")
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return nil, fieldError("file", fmt.Sprintf("File size exceeds the limit of %d bytes.", s.maxSize))
	}

	endpoint, err := endpointForChild(db, s.endpointRepo, req.Endpoint)
	if err != nil {
		return nil, err
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := mediaKey(endpoint.ID, upload.Filename)

	ctx := ctxOf(db)
	if err := s.storage.Save(ctx, key, upload.Reader, contentType); err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("save media file: %w", err))
	}

	media := &models.Media{
		EndpointID:  endpoint.ID,
		File:        key,
		URL:         s.storage.URL(key),
		ContentType: contentType,
		Size:        upload.Size,
		Description: req.Description,
	}
	if err := s.repo.Create(db, media); err != nil {
		// файл без записи никому не нужен
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.CtxWarn(ctx, "Failed to remove orphaned media file", "key", key, "error", delErr)
		}
		return nil, mapRepoError(err)
	}
	return media, nil
}

func (s *mediaService) Update(db *gorm.DB, id string, req *dto.UpdateMediaRequest) (*models.Media, error) {
	media, err := s.Get(db, id)
	if err != nil {
		return nil, err
	}
	if req.Description != nil {
		media.Description = *req.Description
	}
	if err := s.repo.Update(db, media); err != nil {
		return nil, mapRepoError(err)
	}
	return media, nil
}

// Delete мягкий, файл в хранилище не трогается
func (s *mediaService) Delete(db *gorm.DB, id string) error {
	media, err := s.Get(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, media); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// mediaKey: endpoints/<endpoint_id>/<uuid><ext>
func mediaKey(endpointID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("endpoints/%s/%s%s", endpointID, uuid.NewString(), ext)
}
