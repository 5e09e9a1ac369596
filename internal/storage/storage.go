package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrInvalidPath = errors.New("invalid storage path")

// Storage - хранилище файлов Media
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL - публичный адрес файла
	URL(key string) string
}

type Config struct {
	Type      string // local | s3
	BasePath  string
	BaseURL   string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint - для S3-совместимых хранилищ (R2, MinIO)
	Endpoint string
}

func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// cleanKey запрещает выход за пределы хранилища
func cleanKey(key string) (string, error) {
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
