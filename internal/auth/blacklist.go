package auth

import (
	"context"
	"errors"
	"time"

	"apimarket_backend/internal/repositories"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Blacklist - отозванные refresh-токены по jti
type Blacklist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// DBBlacklist хранит jti в таблице blacklisted_tokens
type DBBlacklist struct {
	db   *gorm.DB
	repo repositories.TokenRepository
}

func NewDBBlacklist(db *gorm.DB, repo repositories.TokenRepository) *DBBlacklist {
	return &DBBlacklist{db: db, repo: repo}
}

func (b *DBBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return b.repo.Blacklist(b.db.WithContext(ctx), jti, expiresAt)
}

func (b *DBBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return b.repo.IsBlacklisted(b.db.WithContext(ctx), jti)
}

const redisKeyPrefix = "apimarket:blacklist:"

// RedisBlacklist держит jti в redis до истечения токена
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, redisKeyPrefix+jti, 1, ttl).Err()
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return n > 0, nil
}

// NewRedisClient разбирает redis:// URL
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}
