package services

import (
	"errors"
	"time"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// SubscriptionService - подписки пользователей на отдельные эндпоинты
type SubscriptionService interface {
	// Subscribe - явная подписка, повторная дает Conflict
	Subscribe(db *gorm.DB, userID, endpointSlug string) (*models.Subscription, error)
	ListMine(db *gorm.DB, userID string, page repositories.Page) (*PageResult[models.Subscription], error)

	// Admin operations
	List(db *gorm.DB, filter repositories.SubscriptionFilter, page repositories.Page) (*PageResult[models.Subscription], error)
	Get(db *gorm.DB, id string) (*models.Subscription, error)
	Delete(db *gorm.DB, id string) error
}

type subscriptionService struct {
	repo         repositories.SubscriptionRepository
	endpointRepo repositories.EndpointRepository
	lifecycle    *lifecycle.Manager
}

func NewSubscriptionService(
	repo repositories.SubscriptionRepository,
	endpointRepo repositories.EndpointRepository,
	lm *lifecycle.Manager,
) SubscriptionService {
	return &subscriptionService{
		repo:         repo,
		endpointRepo: endpointRepo,
		lifecycle:    lm,
	}
}

func (s *subscriptionService) Subscribe(db *gorm.DB, userID, endpointSlug string) (*models.Subscription, error) {
	endpoint, err := s.endpointRepo.FindBySlug(db, endpointSlug, false)
	if err != nil {
		if errors.Is(err, repositories.ErrEndpointNotFound) {
			return nil, fieldError("endpoint_slug", "Endpoint \""+endpointSlug+"\" does not exist.")
		}
		return nil, apperrors.InternalError(err)
	}

	// удаленная подписка занимает уникальный индекс, ее восстанавливаем
	existing, err := s.repo.FindByUserAndEndpoint(db, userID, endpoint.ID, true)
	switch {
	case err == nil && !existing.Deleted():
		return nil, apperrors.ErrConflict(repositories.ErrDuplicate, "subscription", "Already subscribed to this endpoint")
	case err == nil:
		if err := s.lifecycle.Restore(db, existing); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		existing.Endpoint = endpoint
		return existing, nil
	case !errors.Is(err, repositories.ErrSubscriptionNotFound):
		return nil, apperrors.InternalError(err)
	}

	sub := &models.Subscription{
		UserID:     userID,
		EndpointID: endpoint.ID,
		AccessedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(db, sub); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrConflict(err, "subscription", "Already subscribed to this endpoint")
		}
		return nil, apperrors.InternalError(err)
	}
	sub.Endpoint = endpoint
	return sub, nil
}

func (s *subscriptionService) ListMine(db *gorm.DB, userID string, page repositories.Page) (*PageResult[models.Subscription], error) {
	items, total, err := s.repo.ListByUser(db, userID, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *subscriptionService) List(db *gorm.DB, filter repositories.SubscriptionFilter, page repositories.Page) (*PageResult[models.Subscription], error) {
	items, total, err := s.repo.List(db, filter, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *subscriptionService) Get(db *gorm.DB, id string) (*models.Subscription, error) {
	if err := checkID(id, repositories.ErrSubscriptionNotFound); err != nil {
		return nil, err
	}
	sub, err := s.repo.FindByID(db, id, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return sub, nil
}

// Delete каскадно удаляет журнал обращений подписки
func (s *subscriptionService) Delete(db *gorm.DB, id string) error {
	sub, err := s.Get(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, sub); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}
