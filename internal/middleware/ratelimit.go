package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"apimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 1024
)

// KeyFunc - ключ ограничения для запроса
type KeyFunc func(c *gin.Context) string

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter - token bucket на каждый ключ
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter: perMinute запросов в минуту на ключ
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Allow расходует токен ключа
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.limiters) >= limiterSweepSize {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// RateLimit отвечает 429 при превышении лимита ключа
func RateLimit(limiter *RateLimiter, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(key(c)) {
			apperrors.HandleError(c, apperrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginKey - identifier из тела запроса логина, иначе IP клиента.
// Тело восстанавливается для хэндлера.
func LoginKey(c *gin.Context) string {
	raw, err := snapshotBody(c)
	if err == nil && len(raw) > 0 {
		var body struct {
			Identifier string `json:"identifier"`
		}
		if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Identifier) != "" {
			return "login:" + strings.ToLower(strings.TrimSpace(body.Identifier))
		}
	}
	return "ip:" + c.ClientIP()
}

// maxSnapshotBody - больше не читаем, учет и лимиты обходятся без хвоста
const maxSnapshotBody = 1 << 20

// snapshotBody читает тело и подменяет его копией для следующих обработчиков
func snapshotBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBody))
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
	return raw, nil
}
