package integration_test

import (
	"net/http"
	"testing"

	"apimarket_backend/internal/models"
	"apimarket_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_PublicReadAdminWrite(t *testing.T) {
	ts := helpers.NewTestServer(t)
	adminToken, _ := ts.CreateAndLoginUser(t, "admin", true)
	userToken, _ := ts.CreateAndLoginUser(t, "reader", false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/categories", userToken, map[string]string{"name": "Maps"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/categories", "", map[string]string{"name": "Maps"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)

	endpoint := createCatalog(t, ts, adminToken, false)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/endpoints/"+endpoint.Slug, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"name":"Forecast"`)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/endpoints?page=1&page_size=1", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"total_items":1`)
	assert.Contains(t, body, `"next":null`)
}

func TestCatalog_DuplicateNameGetsSuffixedSlug(t *testing.T) {
	ts := helpers.NewTestServer(t)
	adminToken, _ := ts.CreateAndLoginUser(t, "admin", true)
	createCatalog(t, ts, adminToken, false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/endpoints", adminToken, map[string]interface{}{
		"category": "weather",
		"name":     "Forecast",
		"method":   "POST",
		"url":      "https://api.example.com/forecast/v2",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var second idResponse
	helpers.DecodeData(t, body, &second)
	assert.NotEqual(t, "forecast", second.Slug)
	assert.Contains(t, second.Slug, "forecast-")
}

func TestCatalog_SoftDeleteCascadeAndRestore(t *testing.T) {
	ts := helpers.NewTestServer(t)
	adminToken, _ := ts.CreateAndLoginUser(t, "admin", true)
	endpoint := createCatalog(t, ts, adminToken, false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/examples", adminToken, map[string]string{
		"endpoint":     endpoint.Slug,
		"language":     "python",
		"request_type": "GET",
		"code_snippet": "requests.get(url)",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/categories/weather", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// удаление каскадом скрывает эндпоинт и его примеры
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/endpoints/"+endpoint.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var example models.Example
	require.NoError(t, ts.DB.Where("endpoint_id = ?", endpoint.ID).First(&example).Error)
	assert.True(t, example.IsDeleted)

	// повторное удаление - 404
	res, _ = ts.SendRequest(t, http.MethodDelete, "/api/v1/categories/weather", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/categories/deleted", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"slug":"weather"`)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/categories/weather/restore", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// восстановление не затрагивает потомков
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/endpoints/"+endpoint.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/endpoints/"+endpoint.Slug+"/restore", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/endpoints/"+endpoint.Slug, "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, body)

	require.NoError(t, ts.DB.Where("endpoint_id = ?", endpoint.ID).First(&example).Error)
	assert.True(t, example.IsDeleted)

	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/categories/weather/hard", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var count int64
	ts.DB.Model(&models.Endpoint{}).Where("id = ?", endpoint.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSubscriptions_ExplicitSubscribeConflict(t *testing.T) {
	ts := helpers.NewTestServer(t)
	adminToken, _ := ts.CreateAndLoginUser(t, "admin", true)
	endpoint := createCatalog(t, ts, adminToken, false)
	token, _ := ts.CreateAndLoginUser(t, "subscriber", false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/subscriptions", token, map[string]string{"endpoint_slug": endpoint.Slug})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/subscriptions", token, map[string]string{"endpoint_slug": endpoint.Slug})
	assert.Equal(t, http.StatusConflict, res.StatusCode, body)

	// обращение к эндпоинту учитывается в существующей подписке
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/endpoints/"+endpoint.Slug+"/access", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/subscriptions/my", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"total_items":1`)

	var sub models.Subscription
	require.NoError(t, ts.DB.Where("endpoint_id = ?", endpoint.ID).First(&sub).Error)
	var usages int64
	ts.DB.Model(&models.Usage{}).Where("subscription_id = ?", sub.ID).Count(&usages)
	assert.Equal(t, int64(1), usages)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := helpers.NewTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "http_requests_total")
}
