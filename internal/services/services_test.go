package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/database"
	"apimarket_backend/internal/email"
	"apimarket_backend/internal/metrics"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/payment"
	"apimarket_backend/pkg/apperrors"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubGateway - шлюз с заранее заданным результатом проверки
type stubGateway struct {
	order   string
	succeed bool
	// foreign: ссылка из запроса не совпадает с сохраненной
	foreign bool
	last    payment.VerifyRequest
}

func (g *stubGateway) Name() string { return "Stub" }

func (g *stubGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	return &payment.Order{Reference: g.order, ClientSecret: "secret_" + req.Reference}, nil
}

func (g *stubGateway) Verify(_ context.Context, req payment.VerifyRequest) (*payment.VerifyResult, error) {
	g.last = req
	if g.foreign {
		return nil, payment.ErrReferenceMismatch
	}
	if g.succeed {
		return &payment.VerifyResult{Succeeded: true, Status: "succeeded"}, nil
	}
	return &payment.VerifyResult{Succeeded: false, Status: "requires_payment_method"}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite://"+filepath.Join(t.TempDir(), "services.db"), false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestContainer(t *testing.T, gw payment.Gateway) *ServiceContainer {
	t.Helper()
	registry := payment.NewRegistry()
	if gw != nil {
		registry.Register(models.PaymentMethodStripe, gw)
	}
	return NewServiceContainer(Dependencies{
		Tokens:   auth.NewTokenManager("test", time.Hour, 24*time.Hour),
		Gateways: registry,
		Notifier: email.NewNotifier(email.NewProvider(email.SMTPConfig{})),
		Metrics:  metrics.New(),
		Payments: PaymentConfig{Currency: "INR"},
	})
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPlan(t *testing.T, db *gorm.DB, name string, price float64) *models.SubscriptionPlan {
	t.Helper()
	p := &models.SubscriptionPlan{Name: name, Price: price, DurationDays: 30, IsActive: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

func createEndpoint(t *testing.T, db *gorm.DB, slug string) *models.Endpoint {
	t.Helper()
	c := &models.Category{Name: "Cat " + slug, Slug: "cat-" + slug}
	require.NoError(t, db.Create(c).Error)
	e := &models.Endpoint{CategoryID: c.ID, Name: slug, Slug: slug, Method: models.HTTPMethodGet, URL: "https://api.example.com/" + slug}
	require.NoError(t, db.Create(e).Error)
	return e
}

func requireHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "ожидалась AppError, получено %v", err)
	require.Equal(t, code, appErr.HTTPCode, appErr.Error())
}
