package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerKeyBucket(t *testing.T) {
	l := NewRateLimiter(2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "ключи не делят бакет")

	// за 30 секунд восстанавливается один токен
	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestRateLimit_LoginKeyAndBodyPreserved(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", RateLimit(NewRateLimiter(1), LoginKey), func(c *gin.Context) {
		var body struct {
			Identifier string `json:"identifier"`
		}
		_ = c.ShouldBindJSON(&body)
		c.String(http.StatusOK, body.Identifier)
	})

	send := func(identifier string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"identifier":"`+identifier+`","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := send("alice")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w = send("ALICE")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	assert.Equal(t, http.StatusOK, send("bob").Code)
}
