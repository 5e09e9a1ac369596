package integration_test

import (
	"net/http"
	"testing"

	"apimarket_backend/test/helpers"

	"github.com/stretchr/testify/require"
)

type idResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// createCatalog создает категорию и эндпоинт от имени админа
func createCatalog(t *testing.T, ts *helpers.TestServer, adminToken string, premium bool) idResponse {
	t.Helper()

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/categories", adminToken, map[string]interface{}{
		"name": "Weather",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var category idResponse
	helpers.DecodeData(t, body, &category)
	require.Equal(t, "weather", category.Slug)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/endpoints", adminToken, map[string]interface{}{
		"category":   category.Slug,
		"name":       "Forecast",
		"method":     "GET",
		"url":        "https://api.example.com/forecast",
		"is_premium": premium,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var endpoint idResponse
	helpers.DecodeData(t, body, &endpoint)
	require.Equal(t, "forecast", endpoint.Slug)
	return endpoint
}

// createPlan создает тарифный план
func createPlan(t *testing.T, ts *helpers.TestServer, adminToken, name string, price float64) string {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/plans", adminToken, map[string]interface{}{
		"name":          name,
		"price":         price,
		"duration_days": 30,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var plan idResponse
	helpers.DecodeData(t, body, &plan)
	return plan.ID
}
