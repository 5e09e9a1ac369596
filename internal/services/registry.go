package services

import (
	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/email"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/metrics"
	"apimarket_backend/internal/payment"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/storage"
)

// Dependencies - внешние зависимости сервисного слоя
type Dependencies struct {
	Tokens       *auth.TokenManager
	Blacklist    auth.Blacklist
	Gateways     *payment.Registry
	Notifier     *email.Notifier
	Storage      storage.Storage
	Metrics      *metrics.Metrics
	MaxMediaSize int64
	Payments     PaymentConfig
}

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService          AuthService
	CategoryService      CategoryService
	EndpointService      EndpointService
	ExampleService       ExampleService
	ResponseModelService ResponseModelService
	MediaService         MediaService
	SubscriptionService  SubscriptionService
	UsageService         UsageService
	PlanService          PlanService
	PaymentService       PaymentService

	Lifecycle *lifecycle.Manager
}

// NewServiceContainer создает репозитории, правила каскада и сервисы
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	categoryRepo := repositories.NewCategoryRepository()
	endpointRepo := repositories.NewEndpointRepository()
	exampleRepo := repositories.NewExampleRepository()
	responseRepo := repositories.NewResponseModelRepository()
	mediaRepo := repositories.NewMediaRepository()
	subscriptionRepo := repositories.NewSubscriptionRepository()
	usageRepo := repositories.NewUsageRepository()
	planRepo := repositories.NewPlanRepository()
	paymentRepo := repositories.NewPaymentRepository()

	lm := lifecycle.NewManager()
	repositories.RegisterCascades(lm)

	planService := NewPlanService(planRepo, userRepo, lm)

	return &ServiceContainer{
		AuthService:          NewAuthService(userRepo, deps.Tokens, deps.Blacklist),
		CategoryService:      NewCategoryService(categoryRepo, lm),
		EndpointService:      NewEndpointService(endpointRepo, categoryRepo, exampleRepo, responseRepo, mediaRepo, lm),
		ExampleService:       NewExampleService(exampleRepo, endpointRepo, lm),
		ResponseModelService: NewResponseModelService(responseRepo, endpointRepo, lm),
		MediaService:         NewMediaService(mediaRepo, endpointRepo, deps.Storage, deps.MaxMediaSize, lm),
		SubscriptionService:  NewSubscriptionService(subscriptionRepo, endpointRepo, lm),
		UsageService:         NewUsageService(usageRepo, subscriptionRepo, endpointRepo, deps.Metrics, lm),
		PlanService:          planService,
		PaymentService: NewPaymentService(
			paymentRepo, planRepo, userRepo, planService,
			deps.Gateways, deps.Notifier, deps.Metrics, lm, deps.Payments,
		),
		Lifecycle: lm,
	}
}
