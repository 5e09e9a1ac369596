package integration_test

import (
	"net/http"
	"testing"
	"time"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/models"
	"apimarket_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPremiumAccessFlow - регистрация, бесплатный план, оплата и доступ к премиум-эндпоинту
func TestPremiumAccessFlow(t *testing.T) {
	ts := helpers.NewTestServer(t)
	adminToken, _ := ts.CreateAndLoginUser(t, "admin", true)
	endpoint := createCatalog(t, ts, adminToken, true)
	freePlanID := createPlan(t, ts, adminToken, "Free", 0)
	proPlanID := createPlan(t, ts, adminToken, "Pro", 499)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "buyer",
		"email":    "buyer@test.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	token := ts.Login(t, "buyer", "secret123")

	// бесплатный план оформляется напрямую
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/plans/subscribe", token, map[string]string{"plan_id": freePlanID})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	// платный план - только через оплату
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/plans/subscribe", token, map[string]string{"plan_id": proPlanID})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	accessPath := "/api/v1/endpoints/" + endpoint.Slug + "/access"
	res, body = ts.SendRequest(t, http.MethodGet, accessPath, token, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/payments/create", token, map[string]string{
		"plan_id":        proPlanID,
		"payment_method": "razorpay",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created dto.CreatePaymentResponse
	helpers.DecodeData(t, body, &created)
	assert.Equal(t, models.PaymentStatusPending, created.Status)
	assert.Equal(t, "INR", created.Currency)
	assert.Equal(t, helpers.RazorpayKeyID, created.KeyID)
	require.Equal(t, []string{created.OrderID}, ts.Razorpay.Orders())

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/payments/verify", token, map[string]string{
		"transaction_id":     created.TransactionID,
		"payment_id":         "pay_001",
		"razorpay_signature": helpers.Signature(created.OrderID, "pay_001"),
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var verified dto.VerifyPaymentResponse
	helpers.DecodeData(t, body, &verified)
	assert.Equal(t, models.PaymentStatusCompleted, verified.Status)

	res, body = ts.SendRequest(t, http.MethodGet, accessPath, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"is_premium":true`)

	// отказ в доступе не учитывается, успешный вызов - учитывается
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/logs/user/count", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var count dto.UsageCountResponse
	helpers.DecodeData(t, body, &count)
	assert.Equal(t, int64(1), count.Count)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/logs/user/count?endpoint="+endpoint.Slug+"&days=7", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.DecodeData(t, body, &count)
	assert.Equal(t, int64(1), count.Count)
	assert.NotEmpty(t, count.EndpointID)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/logs/user/count?endpoint=missing", token, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/logs/user?status_code=403", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"total_items":0`)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/payments/user?status=completed&payment_method=razorpay", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"total_items":1`)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/payments/user?status=failed", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"total_items":0`)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"is_premium":true`)

	// квитанция уходит асинхронно
	require.Eventually(t, func() bool { return len(ts.Mailbox.Sent()) == 1 }, 2*time.Second, 20*time.Millisecond)
	receipt := ts.Mailbox.Sent()[0]
	assert.Equal(t, []string{"buyer@test.com"}, receipt.To)
	assert.Contains(t, receipt.HTMLBody, created.TransactionID)

	// повторная проверка возвращает текущий статус
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/payments/verify", token, map[string]string{
		"transaction_id": created.TransactionID,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"status":"completed"`)
}

func TestPaymentVerify_BadSignature(t *testing.T) {
	ts := helpers.NewTestServer(t)
	adminToken, _ := ts.CreateAndLoginUser(t, "admin", true)
	planID := createPlan(t, ts, adminToken, "Pro", 99.5)
	token, _ := ts.CreateAndLoginUser(t, "payer", false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/payments/create", token, map[string]string{
		"plan_id":        planID,
		"payment_method": "razorpay",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created dto.CreatePaymentResponse
	helpers.DecodeData(t, body, &created)

	// без подписи статус не меняется
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/payments/verify", token, map[string]string{
		"transaction_id": created.TransactionID,
		"payment_id":     "pay_002",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	assert.Contains(t, body, "razorpay_signature")

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/payments/verify", token, map[string]string{
		"transaction_id":     created.TransactionID,
		"payment_id":         "pay_002",
		"razorpay_signature": "deadbeef",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	assert.Contains(t, body, "Signature verification failed")
	assert.Contains(t, body, `"status":"failed"`)

	var stored models.Payment
	require.NoError(t, ts.DB.Where("transaction_id = ?", created.TransactionID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)

	var user models.User
	require.NoError(t, ts.DB.Where("username = ?", "payer").First(&user).Error)
	assert.False(t, user.IsPremium)
}

func TestPaymentCreate_UnknownPlanAndMethod(t *testing.T) {
	ts := helpers.NewTestServer(t)
	token, _ := ts.CreateAndLoginUser(t, "payer", false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/payments/create", token, map[string]string{
		"plan_id":        "00000000-0000-0000-0000-000000000000",
		"payment_method": "razorpay",
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/payments/create", token, map[string]string{
		"plan_id":        "00000000-0000-0000-0000-000000000000",
		"payment_method": "paypal",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
}
