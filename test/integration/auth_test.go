package integration_test

import (
	"net/http"
	"testing"

	"apimarket_backend/internal/auth"
	"apimarket_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterLoginProfile(t *testing.T) {
	ts := helpers.NewTestServer(t)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username":   "alice",
		"email":      "alice@test.com",
		"password":   "secret123",
		"is_premium": true,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var user struct {
		Username  string `json:"username"`
		IsPremium bool   `json:"is_premium"`
	}
	helpers.DecodeData(t, body, &user)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsPremium, "is_premium при регистрации игнорируется")
	assert.NotContains(t, body, "password")

	// логин по email тоже работает
	token := ts.Login(t, "alice@test.com", "secret123")

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"email":"alice@test.com"`)
}

func TestAuth_RegisterDuplicateAndInvalid(t *testing.T) {
	ts := helpers.NewTestServer(t)
	helpers.CreateUser(t, ts.DB, "bob", "password123", false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": "bob",
		"email":    "other@test.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	assert.Contains(t, body, `"success":false`)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": "carol",
		"email":    "not-an-email",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	assert.Contains(t, body, `"email"`)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	ts := helpers.NewTestServer(t)
	helpers.CreateUser(t, ts.DB, "dave", "password123", false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "dave",
		"password":   "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)
}

func TestAuth_RefreshAndLogout(t *testing.T) {
	ts := helpers.NewTestServer(t)
	helpers.CreateUser(t, ts.DB, "erin", "password123", false)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "erin",
		"password":   "password123",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var login struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	helpers.DecodeData(t, body, &login)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/token/refresh", "", map[string]string{
		"refresh": login.Tokens.Refresh,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/logout", login.Tokens.Access, map[string]string{
		"refresh_token": login.Tokens.Refresh,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// отозванный refresh больше не принимается
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/token/refresh", "", map[string]string{
		"refresh": login.Tokens.Refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, body)
}

func TestAuth_ProtectedRouteRequiresToken(t *testing.T) {
	ts := helpers.NewTestServer(t)

	res, _ := ts.SendRequest(t, http.MethodGet, "/api/v1/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/auth/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
