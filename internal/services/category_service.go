package services

import (
	"context"
	"errors"
	"strings"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/slug"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type CategoryService interface {
	List(db *gorm.DB, page repositories.Page) (*PageResult[models.Category], error)
	Get(db *gorm.DB, slug string) (*models.Category, error)
	Create(db *gorm.DB, req *dto.CreateCategoryRequest) (*models.Category, error)
	Update(db *gorm.DB, slug string, req *dto.UpdateCategoryRequest) (*models.Category, error)
	Delete(db *gorm.DB, slug string) error

	ListDeleted(db *gorm.DB, page repositories.Page) (*PageResult[models.Category], error)
	Restore(db *gorm.DB, slug string) (*models.Category, error)
	HardDelete(db *gorm.DB, slug string) error
}

type categoryService struct {
	repo      repositories.CategoryRepository
	lifecycle *lifecycle.Manager
}

func NewCategoryService(repo repositories.CategoryRepository, lm *lifecycle.Manager) CategoryService {
	return &categoryService{repo: repo, lifecycle: lm}
}

func (s *categoryService) List(db *gorm.DB, page repositories.Page) (*PageResult[models.Category], error) {
	items, total, err := s.repo.List(db, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *categoryService) Get(db *gorm.DB, slug string) (*models.Category, error) {
	category, err := s.repo.FindBySlug(db, slug, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return category, nil
}

func (s *categoryService) Create(db *gorm.DB, req *dto.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(db, name, ""); err != nil {
		return nil, err
	}

	categorySlug, err := resolveSlug(db, name, req.Slug, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(db, candidate)
	})
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Slug:        categorySlug,
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.repo.Create(db, category); err != nil {
		return nil, mapRepoError(err)
	}
	return category, nil
}

func (s *categoryService) Update(db *gorm.DB, categorySlug string, req *dto.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.repo.FindBySlug(db, categorySlug, false)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != category.Name {
			if err := s.ensureNameFree(db, name, category.ID); err != nil {
				return nil, err
			}
			category.Name = name
		}
	}
	if req.Slug != nil {
		newSlug, err := changeSlug(db, category.Slug, *req.Slug, func(ctx context.Context, candidate string) (bool, error) {
			return s.repo.SlugExists(db, candidate)
		})
		if err != nil {
			return nil, err
		}
		category.Slug = newSlug
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}

	if err := s.repo.Update(db, category); err != nil {
		return nil, mapRepoError(err)
	}
	return category, nil
}

func (s *categoryService) ensureNameFree(db *gorm.DB, name, exceptID string) error {
	if name == "" {
		return fieldError("name", "This field may not be blank.")
	}
	taken, err := s.repo.NameTaken(db, name, exceptID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if taken {
		return apperrors.ErrConflict(repositories.ErrDuplicate, "category", "Category with this name already exists")
	}
	return nil
}

func (s *categoryService) Delete(db *gorm.DB, categorySlug string) error {
	category, err := s.repo.FindBySlug(db, categorySlug, false)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.lifecycle.Delete(db, category); err != nil {
		return apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctxOf(db), "Category deleted", "slug", category.Slug)
	return nil
}

func (s *categoryService) ListDeleted(db *gorm.DB, page repositories.Page) (*PageResult[models.Category], error) {
	items, total, err := s.repo.ListDeleted(db, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *categoryService) Restore(db *gorm.DB, categorySlug string) (*models.Category, error) {
	category, err := s.repo.FindBySlug(db, categorySlug, true)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.lifecycle.Restore(db, category); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return category, nil
}

func (s *categoryService) HardDelete(db *gorm.DB, categorySlug string) error {
	category, err := s.repo.FindBySlug(db, categorySlug, true)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.lifecycle.HardDelete(db, category); err != nil {
		return apperrors.DatabaseError(err)
	}
	logger.CtxWarn(ctxOf(db), "Category permanently deleted", "slug", category.Slug, "id", category.ID)
	return nil
}

// resolveSlug: явный slug нормализуется и должен быть свободен, иначе генерируется из name
func resolveSlug(db *gorm.DB, name string, supplied *string, exists slug.ExistsFunc) (string, error) {
	ctx := ctxOf(db)
	if supplied != nil && strings.TrimSpace(*supplied) != "" {
		candidate := slug.Slugify(*supplied)
		if candidate == "" {
			return "", fieldError("slug", "Enter a valid slug consisting of letters, numbers or hyphens.")
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", apperrors.InternalError(err)
		}
		if taken {
			return "", apperrors.ErrConflict(repositories.ErrDuplicate, "slug", "Slug \""+candidate+"\" is already in use")
		}
		return candidate, nil
	}

	generated, err := slug.Generate(ctx, name, exists)
	if err != nil {
		if errors.Is(err, slug.ErrEmptySlug) {
			return "", fieldError("name", "Name must contain at least one letter or digit.")
		}
		return "", apperrors.InternalError(err)
	}
	return generated, nil
}

// changeSlug проверяет новый slug при обновлении
func changeSlug(db *gorm.DB, current, requested string, exists slug.ExistsFunc) (string, error) {
	candidate := slug.Slugify(requested)
	if candidate == "" {
		return "", fieldError("slug", "Enter a valid slug consisting of letters, numbers or hyphens.")
	}
	if strings.EqualFold(candidate, current) {
		return current, nil
	}
	taken, err := exists(ctxOf(db), candidate)
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	if taken {
		return "", apperrors.ErrConflict(repositories.ErrDuplicate, "slug", "Slug \""+candidate+"\" is already in use")
	}
	return candidate, nil
}
