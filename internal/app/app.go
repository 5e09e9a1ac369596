package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/config"
	"apimarket_backend/internal/database"
	"apimarket_backend/internal/email"
	"apimarket_backend/internal/handlers"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/metrics"
	"apimarket_backend/internal/middleware"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/payment"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/routes"
	"apimarket_backend/internal/services"
	"apimarket_backend/internal/storage"
	"apimarket_backend/internal/validator"
	"apimarket_backend/internal/workers"
	"apimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App - собранное приложение: роутер и сервисы поверх одного *gorm.DB
type App struct {
	Router   *gin.Engine
	Services *services.ServiceContainer
	Metrics  *metrics.Metrics
	DB       *gorm.DB

	cfg *config.Config
}

// Option подменяет внешние зависимости (тесты, локальная разработка)
type Option func(*options)

type options struct {
	gateways *payment.Registry
	storage  storage.Storage
	provider email.Provider
}

func WithGateways(r *payment.Registry) Option { return func(o *options) { o.gateways = r } }
func WithStorage(s storage.Storage) Option { return func(o *options) { o.storage = s } }
func WithEmailProvider(p email.Provider) Option { return func(o *options) { o.provider = p } }

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.Debug = cfg.Server.Debug || cfg.Server.Env == "development"
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Open(cfg.Database.DSN, cfg.Server.Debug)
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected")

	application, err := New(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}

	if err := application.SeedFirstAdmin(); err != nil {
		// без админа сервер не запускаем
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	application.StartWorkers(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: address, Handler: application.Router}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}

// New собирает сервисы, хэндлеры и роутер
func New(cfg *config.Config, gormDB *gorm.DB, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.storage == nil {
		storageInstance, err := storage.NewStorage(storage.Config{
			Type:      cfg.Storage.Type,
			BasePath:  cfg.Storage.BasePath,
			BaseURL:   cfg.Storage.BaseURL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Endpoint:  cfg.Storage.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		o.storage = storageInstance
		logger.Info("Storage initialized", "type", cfg.Storage.Type)
	}

	m := metrics.New()

	serviceContainer, err := initializeServices(cfg, gormDB, m, &o)
	if err != nil {
		return nil, err
	}

	appHandlers := initializeHandlers(cfg, serviceContainer, o.storage)
	guards := handlers.Guards{
		Auth:       middleware.AuthMiddleware(serviceContainer.AuthService),
		Admin:      middleware.RequireAdmin(),
		LoginLimit: middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute), middleware.LoginKey),
		TrackUsage: middleware.TrackUsage(serviceContainer.UsageService, "slug"),
	}

	ginRouter := initializeGinRouter(gormDB, m)
	routes.RegisterRoutes(ginRouter, appHandlers, guards, m.Handler())

	return &App{
		Router:   ginRouter,
		Services: serviceContainer,
		Metrics:  m,
		DB:       gormDB,
		cfg:      cfg,
	}, nil
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, m *metrics.Metrics, o *options) (*services.ServiceContainer, error) {
	if o.provider == nil {
		o.provider = email.NewProvider(email.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
		})
	}

	blacklist, err := initializeBlacklist(cfg, gormDB)
	if err != nil {
		return nil, err
	}

	if o.gateways == nil {
		o.gateways = initializeGateways(cfg)
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	return services.NewServiceContainer(services.Dependencies{
		Tokens:       tokens,
		Blacklist:    blacklist,
		Gateways:     o.gateways,
		Notifier:     email.NewNotifier(o.provider),
		Storage:      o.storage,
		Metrics:      m,
		MaxMediaSize: cfg.Storage.MaxSize,
		Payments: services.PaymentConfig{
			Currency:      cfg.Payments.Currency,
			RazorpayKeyID: cfg.Payments.Razorpay.KeyID,
		},
	}), nil
}

func initializeBlacklist(cfg *config.Config, gormDB *gorm.DB) (auth.Blacklist, error) {
	if cfg.JWT.Blacklist != "redis" {
		return auth.NewDBBlacklist(gormDB, repositories.NewTokenRepository()), nil
	}
	client, err := auth.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis blacklist: %w", err)
	}
	logger.Info("Token blacklist uses redis")
	return auth.NewRedisBlacklist(client), nil
}

// initializeGateways регистрирует только сконфигурированные шлюзы
func initializeGateways(cfg *config.Config) *payment.Registry {
	registry := payment.NewRegistry()
	if cfg.Payments.Razorpay.KeyID != "" && cfg.Payments.Razorpay.KeySecret != "" {
		registry.Register(models.PaymentMethodRazorpay, payment.NewRazorpayGateway(payment.RazorpayConfig{
			KeyID:     cfg.Payments.Razorpay.KeyID,
			KeySecret: cfg.Payments.Razorpay.KeySecret,
			BaseURL:   cfg.Payments.Razorpay.BaseURL,
		}, nil))
	} else {
		logger.Warn("Razorpay is not configured")
	}
	if cfg.Payments.Stripe.SecretKey != "" {
		registry.Register(models.PaymentMethodStripe, payment.NewStripeGateway(cfg.Payments.Stripe.SecretKey))
	} else {
		logger.Warn("Stripe is not configured")
	}
	return registry
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer, storageInstance storage.Storage) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator, handlers.PaginationConfig{
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
	})

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, svc.AuthService),
		CategoryHandler:     handlers.NewCategoryHandler(baseHandler, svc.CategoryService),
		EndpointHandler:     handlers.NewEndpointHandler(baseHandler, svc.EndpointService),
		ExampleHandler:      handlers.NewExampleHandler(baseHandler, svc.ExampleService),
		ResponseHandler:     handlers.NewResponseHandler(baseHandler, svc.ResponseModelService),
		MediaHandler:        handlers.NewMediaHandler(baseHandler, svc.MediaService),
		FileHandler:         handlers.NewFileHandler(baseHandler, storageInstance),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, svc.SubscriptionService, svc.UsageService),
		UsageHandler:        handlers.NewUsageHandler(baseHandler, svc.UsageService),
		PlanHandler:         handlers.NewPlanHandler(baseHandler, svc.PlanService),
		PaymentHandler:      handlers.NewPaymentHandler(baseHandler, svc.PaymentService),
		HealthHandler:       handlers.NewHealthHandler(baseHandler),
	}
}

func initializeGinRouter(db *gorm.DB, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

// StartWorkers запускает фоновые воркеры до отмены ctx
func (a *App) StartWorkers(ctx context.Context) {
	workers.NewSubscriptionWorker(a.DB, a.Services.PlanService, a.Metrics, a.cfg.Workers.SubscriptionInterval).Start(ctx)
	if a.cfg.JWT.Blacklist != "redis" {
		workers.NewTokenCleanupWorker(a.DB, repositories.NewTokenRepository(), 24*time.Hour).Start(ctx)
	}
}

// SeedFirstAdmin создает staff+superuser из конфига, если его еще нет
func (a *App) SeedFirstAdmin() error {
	admin := a.cfg.FirstAdmin
	if admin.Email == "" || admin.Password == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}
	username := admin.Username
	if username == "" {
		username = "admin"
	}

	created, err := a.Services.AuthService.EnsureAdmin(a.DB, admin.Email, username, admin.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if created {
		logger.Info("Successfully created first admin user", "email", admin.Email)
	} else {
		logger.Info("Admin user already exists. Skipping creation.", "email", admin.Email)
	}
	return nil
}
