package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"apimarket_backend/internal/storage"
	"apimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler раздает файлы Media из хранилища
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	files := r.Group("/files")
	{
		files.GET("/*key", h.ServeFile)
		files.HEAD("/*key", h.CheckFileExists)
	}
}

// ServeFile отдает файл по ключу хранилища
func (h *FileHandler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	reader, err := h.storage.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid file path"))
			return
		}
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		_ = c.Error(err)
	}
}

// CheckFileExists - HEAD без тела
func (h *FileHandler) CheckFileExists(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	exists, err := h.storage.Exists(c.Request.Context(), key)
	if err != nil || !exists {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}
