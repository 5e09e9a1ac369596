package services

import (
	"errors"
	"math"
	"time"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// PlanService - тарифные планы и подписки пользователей на них
type PlanService interface {
	// Plan operations
	ListActive(db *gorm.DB, page repositories.Page) (*PageResult[models.SubscriptionPlan], error)
	ListAll(db *gorm.DB, page repositories.Page) (*PageResult[models.SubscriptionPlan], error)
	Get(db *gorm.DB, id string) (*models.SubscriptionPlan, error)
	Create(db *gorm.DB, req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error)
	Update(db *gorm.DB, id string, req *dto.UpdatePlanRequest) (*models.SubscriptionPlan, error)
	Delete(db *gorm.DB, id string) error

	// User subscription operations
	Subscribe(db *gorm.DB, userID, planID string) (*models.UserSubscription, error)
	MySubscriptions(db *gorm.DB, userID string, page repositories.Page) (*PageResult[models.UserSubscription], error)
	// ActivatePlan выдает премиум и продлевает подписку после оплаты
	ActivatePlan(db *gorm.DB, userID string, plan *models.SubscriptionPlan, transactionID string) (*models.UserSubscription, error)

	// Admin operations
	ListUserSubscriptions(db *gorm.DB, filter repositories.UserSubscriptionFilter, page repositories.Page) (*PageResult[models.UserSubscription], error)
	GetUserSubscription(db *gorm.DB, id string) (*models.UserSubscription, error)
	UpdateUserSubscription(db *gorm.DB, id string, req *dto.UpdateUserSubscriptionRequest) (*models.UserSubscription, error)
	DeleteUserSubscription(db *gorm.DB, id string) error
	// ExpireSubscriptions: (деактивировано подписок, снято премиумов)
	ExpireSubscriptions(db *gorm.DB, now time.Time) (int64, int64, error)
}

type planService struct {
	repo      repositories.PlanRepository
	userRepo  repositories.UserRepository
	lifecycle *lifecycle.Manager
	now       func() time.Time
}

func NewPlanService(repo repositories.PlanRepository, userRepo repositories.UserRepository, lm *lifecycle.Manager) PlanService {
	return &planService{
		repo:      repo,
		userRepo:  userRepo,
		lifecycle: lm,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Plan operations

func (s *planService) ListActive(db *gorm.DB, page repositories.Page) (*PageResult[models.SubscriptionPlan], error) {
	plans, total, err := s.repo.ListPlans(db, true, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(plans, total, page), nil
}

func (s *planService) ListAll(db *gorm.DB, page repositories.Page) (*PageResult[models.SubscriptionPlan], error) {
	plans, total, err := s.repo.ListPlans(db, false, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(plans, total, page), nil
}

func (s *planService) Get(db *gorm.DB, id string) (*models.SubscriptionPlan, error) {
	if err := checkID(id, repositories.ErrPlanNotFound); err != nil {
		return nil, err
	}
	plan, err := s.repo.FindPlanByID(db, id, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return plan, nil
}

func (s *planService) Create(db *gorm.DB, req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error) {
	plan := &models.SubscriptionPlan{
		Name:         req.Name,
		Description:  req.Description,
		Price:        roundPrice(*req.Price),
		DurationDays: req.DurationDays,
		IsActive:     true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := s.repo.CreatePlan(db, plan); err != nil {
		return nil, mapRepoError(err)
	}
	return plan, nil
}

func (s *planService) Update(db *gorm.DB, id string, req *dto.UpdatePlanRequest) (*models.SubscriptionPlan, error) {
	plan, err := s.Get(db, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		plan.Price = roundPrice(*req.Price)
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := s.repo.UpdatePlan(db, plan); err != nil {
		return nil, mapRepoError(err)
	}
	return plan, nil
}

// Delete не каскадирует: подписки и платежи ссылаются на план как на историю
func (s *planService) Delete(db *gorm.DB, id string) error {
	plan, err := s.Get(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, plan); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// User subscription operations

func (s *planService) Subscribe(db *gorm.DB, userID, planID string) (*models.UserSubscription, error) {
	plan, err := s.activePlan(db, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsFree() {
		return nil, fieldError("plan_id", "This plan requires payment. Use the payments API to subscribe.")
	}

	now := s.now()
	existing, err := s.repo.FindUserSubscription(db, userID, plan.ID, true)
	switch {
	case err == nil:
		if !existing.Deleted() && existing.Active && existing.EndDate.After(now) {
			return nil, apperrors.ErrConflict(repositories.ErrDuplicate, "subscription", "You already have an active subscription to this plan")
		}
		renew(existing, plan, now)
		existing.PaymentID = nil
		if err := s.repo.UpdateUserSubscription(db, existing); err != nil {
			return nil, mapRepoError(err)
		}
		existing.Plan = plan
		return existing, nil
	case !errors.Is(err, repositories.ErrUserSubscriptionNotFound):
		return nil, apperrors.InternalError(err)
	}

	sub := &models.UserSubscription{UserID: userID, PlanID: plan.ID}
	renew(sub, plan, now)
	if err := s.repo.CreateUserSubscription(db, sub); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrConflict(err, "subscription", "You already have an active subscription to this plan")
		}
		return nil, mapRepoError(err)
	}
	sub.Plan = plan
	return sub, nil
}

func (s *planService) MySubscriptions(db *gorm.DB, userID string, page repositories.Page) (*PageResult[models.UserSubscription], error) {
	filter := repositories.UserSubscriptionFilter{UserID: userID, ActiveOnly: true}
	subs, total, err := s.repo.ListUserSubscriptions(db, filter, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(subs, total, page), nil
}

func (s *planService) ActivatePlan(db *gorm.DB, userID string, plan *models.SubscriptionPlan, transactionID string) (*models.UserSubscription, error) {
	if err := s.userRepo.SetPremium(db, userID, true); err != nil {
		return nil, mapRepoError(err)
	}

	now := s.now()
	paymentID := transactionID

	// строка на пару (user, plan) одна, в том числе удаленная
	sub, err := s.repo.FindUserSubscription(db, userID, plan.ID, true)
	switch {
	case err == nil:
		renew(sub, plan, now)
		sub.PaymentID = &paymentID
		if err := s.repo.UpdateUserSubscription(db, sub); err != nil {
			return nil, mapRepoError(err)
		}
	case errors.Is(err, repositories.ErrUserSubscriptionNotFound):
		sub = &models.UserSubscription{UserID: userID, PlanID: plan.ID, PaymentID: &paymentID}
		renew(sub, plan, now)
		if err := s.repo.CreateUserSubscription(db, sub); err != nil {
			return nil, mapRepoError(err)
		}
	default:
		return nil, apperrors.InternalError(err)
	}
	sub.Plan = plan
	return sub, nil
}

// Admin operations

func (s *planService) ListUserSubscriptions(db *gorm.DB, filter repositories.UserSubscriptionFilter, page repositories.Page) (*PageResult[models.UserSubscription], error) {
	subs, total, err := s.repo.ListUserSubscriptions(db, filter, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(subs, total, page), nil
}

func (s *planService) GetUserSubscription(db *gorm.DB, id string) (*models.UserSubscription, error) {
	if err := checkID(id, repositories.ErrUserSubscriptionNotFound); err != nil {
		return nil, err
	}
	sub, err := s.repo.FindUserSubscriptionByID(db, id, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return sub, nil
}

func (s *planService) UpdateUserSubscription(db *gorm.DB, id string, req *dto.UpdateUserSubscriptionRequest) (*models.UserSubscription, error) {
	sub, err := s.GetUserSubscription(db, id)
	if err != nil {
		return nil, err
	}
	if req.EndDate != nil {
		if req.EndDate.Before(sub.StartDate) {
			return nil, fieldError("end_date", "End date must be after start date.")
		}
		sub.EndDate = req.EndDate.UTC()
	}
	if req.Active != nil {
		sub.Active = *req.Active
	}
	if err := s.repo.UpdateUserSubscription(db, sub); err != nil {
		return nil, mapRepoError(err)
	}
	return sub, nil
}

func (s *planService) DeleteUserSubscription(db *gorm.DB, id string) error {
	sub, err := s.GetUserSubscription(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, sub); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *planService) ExpireSubscriptions(db *gorm.DB, now time.Time) (int64, int64, error) {
	expired, err := s.repo.ExpireEnded(db, now)
	if err != nil {
		return 0, 0, err
	}
	downgraded, err := s.userRepo.ClearPremiumWithoutActivePlan(db, now)
	if err != nil {
		return expired, 0, err
	}
	return expired, downgraded, nil
}

func (s *planService) activePlan(db *gorm.DB, planID string) (*models.SubscriptionPlan, error) {
	if err := checkID(planID, repositories.ErrPlanNotFound); err != nil {
		return nil, err
	}
	plan, err := s.repo.FindActivePlan(db, planID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return plan, nil
}

// renew начинает новый период подписки с текущего момента
func renew(sub *models.UserSubscription, plan *models.SubscriptionPlan, now time.Time) {
	sub.StartDate = now
	sub.EndDate = now.AddDate(0, 0, plan.DurationDays)
	sub.Active = true
	sub.IsDeleted = false
	sub.DeletedAt = nil
}

func roundPrice(price float64) float64 {
	return math.Round(price*100) / 100
}
