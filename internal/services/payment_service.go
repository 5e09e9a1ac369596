package services

import (
	"context"
	"errors"
	"fmt"

	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/email"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/metrics"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/payment"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ключи metadata со ссылкой на заказ у конкретного шлюза
const (
	metaOrderID             = "order_id"
	metaRazorpayOrderID     = "razorpay_order_id"
	metaStripePaymentIntent = "stripe_payment_intent"
	metaGatewayPaymentID    = "payment_id"
	metaGatewayStatus       = "gateway_status"
)

type PaymentConfig struct {
	Currency string
	// RazorpayKeyID отдается клиенту для checkout
	RazorpayKeyID string
}

type PaymentService interface {
	CreatePayment(ctx context.Context, db *gorm.DB, userID string, req *dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error)
	VerifyPayment(ctx context.Context, db *gorm.DB, user *models.User, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)
	// ListForUser: filter.UserID заменяется на userID
	ListForUser(db *gorm.DB, userID string, filter repositories.PaymentFilter, page repositories.Page) (*PageResult[models.Payment], error)

	// Admin operations
	List(db *gorm.DB, filter repositories.PaymentFilter, page repositories.Page) (*PageResult[models.Payment], error)
	Get(db *gorm.DB, id string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id string, req *dto.UpdatePaymentStatusRequest) (*models.Payment, error)
	Delete(db *gorm.DB, id string) error
	Restore(db *gorm.DB, id string) (*models.Payment, error)
}

type paymentService struct {
	repo        repositories.PaymentRepository
	planRepo    repositories.PlanRepository
	userRepo    repositories.UserRepository
	planService PlanService
	gateways    *payment.Registry
	notifier    *email.Notifier
	metrics     *metrics.Metrics
	lifecycle   *lifecycle.Manager
	cfg         PaymentConfig
}

func NewPaymentService(
	repo repositories.PaymentRepository,
	planRepo repositories.PlanRepository,
	userRepo repositories.UserRepository,
	planService PlanService,
	gateways *payment.Registry,
	notifier *email.Notifier,
	m *metrics.Metrics,
	lm *lifecycle.Manager,
	cfg PaymentConfig,
) PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &paymentService{
		repo:        repo,
		planRepo:    planRepo,
		userRepo:    userRepo,
		planService: planService,
		gateways:    gateways,
		notifier:    notifier,
		metrics:     m,
		lifecycle:   lm,
		cfg:         cfg,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, db *gorm.DB, userID string, req *dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	method := models.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, fieldError("payment_method", fmt.Sprintf("\"%s\" is not a valid choice.", req.PaymentMethod))
	}
	gw, err := s.gateways.Get(method)
	if err != nil {
		return nil, fieldError("payment_method", "This payment method is not available.")
	}

	if err := checkID(req.PlanID, repositories.ErrPlanNotFound); err != nil {
		return nil, err
	}
	plan, err := s.planRepo.FindActivePlan(db, req.PlanID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if plan.IsFree() {
		return nil, fieldError("plan_id", "This plan is free. Subscribe to it directly.")
	}

	p := &models.Payment{
		UserID:        userID,
		PlanID:        plan.ID,
		TransactionID: uuid.NewString(),
		Amount:        plan.Price,
		Currency:      s.cfg.Currency,
		PaymentMethod: method,
		Status:        models.PaymentStatusPending,
	}
	if err := p.MergeMetadata(map[string]interface{}{}); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.repo.Create(db, p); err != nil {
		return nil, mapRepoError(err)
	}

	order, err := gw.CreateOrder(ctx, payment.OrderRequest{
		AmountMinor: payment.ToMinorUnits(p.Amount),
		Currency:    p.Currency,
		Reference:   p.TransactionID,
	})
	if err != nil {
		// платеж остается pending, клиент может создать новый
		logger.CtxWarn(ctx, "Payment gateway rejected order",
			"transaction_id", p.TransactionID,
			"payment_method", method,
			"error", err,
		)
		return nil, apperrors.GatewayError(providerName(method), err)
	}

	if err := p.MergeMetadata(map[string]interface{}{
		metaOrderID:         order.Reference,
		orderMetaKey(method): order.Reference,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.repo.UpdateMetadata(db, p.ID, p.Metadata); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	s.metrics.IncPaymentCreated(string(method))

	resp := &dto.CreatePaymentResponse{
		TransactionID: p.TransactionID,
		OrderID:       order.Reference,
		ClientSecret:  order.ClientSecret,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: method,
		Status:        p.Status,
	}
	if method == models.PaymentMethodRazorpay {
		resp.KeyID = s.cfg.RazorpayKeyID
	}
	return resp, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, db *gorm.DB, user *models.User, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	p, err := s.repo.FindByTransactionID(db, req.TransactionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if p.UserID != user.ID && !auth.IsAdmin(user) {
		return nil, apperrors.ErrNotFound(repositories.ErrPaymentNotFound)
	}

	// повторная проверка завершенного платежа шлюз не вызывает
	if p.Status.Terminal() {
		return &dto.VerifyPaymentResponse{TransactionID: p.TransactionID, Status: p.Status}, nil
	}

	if p.PaymentMethod == models.PaymentMethodRazorpay {
		details := map[string][]string{}
		if req.PaymentID == "" {
			details["payment_id"] = []string{"This field is required."}
		}
		if req.Signature == "" {
			details["razorpay_signature"] = []string{"This field is required."}
		}
		if len(details) > 0 {
			return nil, apperrors.ValidationError(details)
		}
	}

	gw, err := s.gateways.Get(p.PaymentMethod)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	result, err := gw.Verify(ctx, payment.VerifyRequest{
		TransactionID:  p.TransactionID,
		OrderReference: orderReference(p),
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if errors.Is(err, payment.ErrReferenceMismatch) {
		return nil, fieldError("payment_id", "Payment does not belong to this transaction.")
	}
	if err != nil {
		return nil, apperrors.GatewayError(providerName(p.PaymentMethod), err)
	}

	if !result.Succeeded {
		if err := s.finalize(db, p, models.PaymentStatusFailed, req.PaymentID, result.Status); err != nil {
			return nil, err
		}
		s.metrics.IncPaymentVerified(string(p.PaymentMethod), string(p.Status))

		msg := "Payment failed"
		if p.PaymentMethod == models.PaymentMethodRazorpay {
			msg = "Signature verification failed"
		}
		return nil, apperrors.NewBadRequestError(msg).WithDetails(map[string]interface{}{
			"transaction_id": p.TransactionID,
			"status":         p.Status,
		})
	}

	sub, err := s.complete(db, p, req.PaymentID, result.Status)
	if err != nil {
		return nil, err
	}
	s.metrics.IncPaymentVerified(string(p.PaymentMethod), string(p.Status))
	s.sendReceipt(ctx, db, p, sub)

	return &dto.VerifyPaymentResponse{TransactionID: p.TransactionID, Status: p.Status}, nil
}

// complete переводит платеж в completed и активирует план одной транзакцией
func (s *paymentService) complete(db *gorm.DB, p *models.Payment, gatewayPaymentID, gatewayStatus string) (*models.UserSubscription, error) {
	var sub *models.UserSubscription
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := s.finalize(tx, p, models.PaymentStatusCompleted, gatewayPaymentID, gatewayStatus); err != nil {
			return err
		}
		plan, err := s.paymentPlan(tx, p)
		if err != nil {
			return err
		}
		sub, err = s.planService.ActivatePlan(tx, p.UserID, plan, p.TransactionID)
		return err
	})
	if err != nil {
		// откат транзакции вернул статус в базе
		p.Status = models.PaymentStatusPending
		return nil, err
	}
	return sub, nil
}

func (s *paymentService) finalize(db *gorm.DB, p *models.Payment, to models.PaymentStatus, gatewayPaymentID, gatewayStatus string) error {
	if !p.CanTransition(to) {
		return apperrors.ErrPaymentNotPending
	}
	if err := s.repo.Transition(db, p, to); err != nil {
		if errors.Is(err, repositories.ErrPaymentStatusChanged) {
			return apperrors.ErrPaymentNotPending
		}
		return apperrors.DatabaseError(err)
	}

	values := map[string]interface{}{}
	if gatewayPaymentID != "" {
		values[metaGatewayPaymentID] = gatewayPaymentID
	}
	if gatewayStatus != "" {
		values[metaGatewayStatus] = gatewayStatus
	}
	if len(values) == 0 {
		return nil
	}
	if err := p.MergeMetadata(values); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.repo.UpdateMetadata(db, p.ID, p.Metadata); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *paymentService) paymentPlan(db *gorm.DB, p *models.Payment) (*models.SubscriptionPlan, error) {
	if p.Plan != nil {
		return p.Plan, nil
	}
	plan, err := s.planRepo.FindPlanByID(db, p.PlanID, true)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return plan, nil
}

// sendReceipt - письмо после коммита, ошибки только логируются
func (s *paymentService) sendReceipt(ctx context.Context, db *gorm.DB, p *models.Payment, sub *models.UserSubscription) {
	if s.notifier == nil || sub == nil {
		return
	}
	owner, err := s.userRepo.FindByID(db, p.UserID, true)
	if err != nil {
		logger.CtxWarn(ctx, "Receipt skipped: payment owner not found", "transaction_id", p.TransactionID, "error", err)
		return
	}
	planName := ""
	if sub.Plan != nil {
		planName = sub.Plan.Name
	}
	receipt := email.Receipt{
		To:            owner.Email,
		Username:      owner.Username,
		PlanName:      planName,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		EndDate:       sub.EndDate,
	}

	go func() {
		if err := s.notifier.SendPaymentReceipt(context.WithoutCancel(ctx), receipt); err != nil {
			logger.CtxWarn(ctx, "Failed to send payment receipt", "transaction_id", receipt.TransactionID, "error", err)
		}
	}()
}

func (s *paymentService) ListForUser(db *gorm.DB, userID string, filter repositories.PaymentFilter, page repositories.Page) (*PageResult[models.Payment], error) {
	filter.UserID = userID
	return s.List(db, filter, page)
}

func (s *paymentService) List(db *gorm.DB, filter repositories.PaymentFilter, page repositories.Page) (*PageResult[models.Payment], error) {
	items, total, err := s.repo.List(db, filter, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

func (s *paymentService) Get(db *gorm.DB, id string) (*models.Payment, error) {
	return s.find(db, id, false)
}

func (s *paymentService) find(db *gorm.DB, id string, includeDeleted bool) (*models.Payment, error) {
	if err := checkID(id, repositories.ErrPaymentNotFound); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(db, id, includeDeleted)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return p, nil
}

// UpdateStatus - ручная смена статуса админом по той же машине состояний.
// completed активирует план так же, как успешная проверка.
func (s *paymentService) UpdateStatus(ctx context.Context, db *gorm.DB, id string, req *dto.UpdatePaymentStatusRequest) (*models.Payment, error) {
	to := models.PaymentStatus(req.Status)
	if !to.Valid() {
		return nil, fieldError("status", fmt.Sprintf("\"%s\" is not a valid choice.", req.Status))
	}

	p, err := s.Get(db, id)
	if err != nil {
		return nil, err
	}
	if p.Status == to {
		return p, nil
	}
	if !p.CanTransition(to) {
		return nil, apperrors.ErrPaymentNotPending
	}

	if to == models.PaymentStatusFailed {
		if err := s.finalize(db, p, to, "", ""); err != nil {
			return nil, err
		}
		return p, nil
	}

	sub, err := s.complete(db, p, "", "")
	if err != nil {
		return nil, err
	}
	s.sendReceipt(ctx, db, p, sub)
	return p, nil
}

func (s *paymentService) Delete(db *gorm.DB, id string) error {
	p, err := s.Get(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, p); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *paymentService) Restore(db *gorm.DB, id string) (*models.Payment, error) {
	p, err := s.find(db, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.Restore(db, p); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return p, nil
}

func orderMetaKey(method models.PaymentMethod) string {
	if method == models.PaymentMethodStripe {
		return metaStripePaymentIntent
	}
	return metaRazorpayOrderID
}

// orderReference - ссылка на заказ у шлюза из metadata платежа
func orderReference(p *models.Payment) string {
	if ref := p.MetadataString(orderMetaKey(p.PaymentMethod)); ref != "" {
		return ref
	}
	return p.MetadataString(metaOrderID)
}

func providerName(method models.PaymentMethod) string {
	switch method {
	case models.PaymentMethodRazorpay:
		return "Razorpay"
	case models.PaymentMethodStripe:
		return "Stripe"
	}
	return string(method)
}
