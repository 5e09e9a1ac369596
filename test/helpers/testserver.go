package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"apimarket_backend/internal/app"
	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/config"
	"apimarket_backend/internal/database"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/payment"
	"apimarket_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	RazorpayKeyID     = "rzp_test_key"
	RazorpayKeySecret = "rzp_test_secret"
)

var initOnce sync.Once

// TestServer - приложение на sqlite во временной директории
// и заглушка Razorpay Orders API
type TestServer struct {
	Server   *httptest.Server
	Razorpay *FakeRazorpay
	Mailbox  *Mailbox
	App      *app.App
	DB       *gorm.DB
}

// NewTestServer создает изолированный сервер на каждый тест
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	initOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		logger.Init("test")
	})

	dir := t.TempDir()
	db, err := database.Open("sqlite://"+filepath.Join(dir, "test.db")+"?_pragma=busy_timeout(5000)", false)
	require.NoError(t, err, "Не удалось открыть тестовую БД")
	require.NoError(t, database.AutoMigrate(db))

	cfg := config.Defaults()
	cfg.Server.Env = "test"
	cfg.JWT.Secret = "test-secret-for-integration"
	cfg.RateLimit.LoginPerMinute = 1000
	cfg.Storage.BasePath = filepath.Join(dir, "uploads")
	cfg.Payments.Razorpay.KeyID = RazorpayKeyID
	cfg.Payments.Razorpay.KeySecret = RazorpayKeySecret

	rzp := NewFakeRazorpay(t)
	cfg.Payments.Razorpay.BaseURL = rzp.URL()

	gateways := payment.NewRegistry()
	gateways.Register(models.PaymentMethodRazorpay, payment.NewRazorpayGateway(payment.RazorpayConfig{
		KeyID:     RazorpayKeyID,
		KeySecret: RazorpayKeySecret,
		BaseURL:   rzp.URL(),
	}, rzp.server.Client()))

	store, err := storage.NewLocalStorage(storage.Config{BasePath: cfg.Storage.BasePath, BaseURL: cfg.Storage.BaseURL})
	require.NoError(t, err)

	mailbox := &Mailbox{}
	application, err := app.New(cfg, db,
		app.WithGateways(gateways),
		app.WithStorage(store),
		app.WithEmailProvider(mailbox),
	)
	require.NoError(t, err, "Не удалось собрать приложение")

	server := httptest.NewServer(application.Router)
	ts := &TestServer{Server: server, Razorpay: rzp, Mailbox: mailbox, App: application, DB: db}
	t.Cleanup(func() {
		server.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return ts
}

// SendRequest отправляет JSON-запрос и возвращает ответ с телом
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Ошибка кодирования JSON для запроса")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err, "Ошибка создания HTTP-запроса")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "Ошибка отправки HTTP-запроса")
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err, "Ошибка чтения тела ответа")
	return res, string(resBody)
}

// Envelope - успешный ответ API
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeData разбирает поле data конверта в out
func DecodeData(t *testing.T, body string, out interface{}) {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env), "Не удалось распарсить конверт: %s", body)
	require.NoError(t, json.Unmarshal(env.Data, out), "Не удалось распарсить data: %s", string(env.Data))
}

// CreateUser создает активного пользователя напрямую в БД
func CreateUser(t *testing.T, db *gorm.DB, username, password string, staff bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@test.com", username),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      staff,
		IsSuperuser:  staff,
	}
	require.NoError(t, db.Create(user).Error, "Не удалось создать пользователя %s", username)
	return user
}

// Login логинит пользователя через API и возвращает access-токен
func (ts *TestServer) Login(t *testing.T, identifier, password string) string {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "Логин должен быть успешным. Ответ: %s", body)

	var resp struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	DecodeData(t, body, &resp)
	require.NotEmpty(t, resp.Tokens.Access, "Токен не должен быть пустым")
	return resp.Tokens.Access
}

// CreateAndLoginUser создает пользователя и логинит его
func (ts *TestServer) CreateAndLoginUser(t *testing.T, username string, staff bool) (string, *models.User) {
	t.Helper()
	const password = "password123"
	user := CreateUser(t, ts.DB, username, password, staff)
	return ts.Login(t, username, password), user
}
