package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/middleware"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/services"
	"apimarket_backend/internal/validator"
	"apimarket_backend/pkg/apperrors"
	"apimarket_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

// PaginationConfig - размеры страниц по умолчанию
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

type BaseHandler struct {
	validator  *validator.Validator
	pagination PaginationConfig
}

func NewBaseHandler(v *validator.Validator, pagination PaginationConfig) *BaseHandler {
	if pagination.DefaultPageSize <= 0 {
		pagination.DefaultPageSize = 10
	}
	if pagination.MaxPageSize <= 0 {
		pagination.MaxPageSize = 100
	}
	return &BaseHandler{
		validator:  v,
		pagination: pagination,
	}
}

// Guards - middleware доступа, которые хэндлеры навешивают на свои маршруты
type Guards struct {
	Auth       gin.HandlerFunc
	Admin      gin.HandlerFunc
	LoginLimit gin.HandlerFunc
	// TrackUsage учитывает обращения; параметр пути со slug - ":slug"
	TrackUsage gin.HandlerFunc
}

// ============================================================================
// 2. DB из контекста запроса
// ============================================================================

// GetDB извлекает *gorm.DB (пул или транзакцию) из gin.Context
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

// ============================================================================
// 3. Привязка и валидация
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind request body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}
	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(fieldErrors(vErr.Errors)))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// fieldErrors: поле -> список сообщений, как у остальных ошибок валидации
func fieldErrors(errs map[string]string) map[string][]string {
	out := make(map[string][]string, len(errs))
	for field, msg := range errs {
		out[field] = []string{msg}
	}
	return out
}

// ============================================================================
// 4. Ошибки
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 5. Текущий пользователь
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return "", false
	}
	return user.ID, true
}

func (h *BaseHandler) CurrentUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil || user.ID == "" {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: user not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
		return nil, false
	}
	return user, true
}

// ============================================================================
// 6. Ответы
// ============================================================================

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type Pagination struct {
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
	TotalItems  int64   `json:"total_items"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
}

type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Pagination Pagination  `json:"pagination"`
	Data       interface{} `json:"data"`
}

func (h *BaseHandler) Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

func (h *BaseHandler) NoContent(c *gin.Context, message string) {
	h.Success(c, http.StatusOK, message, nil)
}

// respondPage - пагинированный конверт с абсолютными ссылками next/previous
func respondPage[T any](c *gin.Context, result *services.PageResult[T]) {
	totalPages := 0
	if result.PageSize > 0 {
		totalPages = int((result.Total + int64(result.PageSize) - 1) / int64(result.PageSize))
	}

	pagination := Pagination{
		CurrentPage: result.Page,
		TotalPages:  totalPages,
		TotalItems:  result.Total,
	}
	if result.Page < totalPages {
		next := pageURL(c, result.Page+1)
		pagination.Next = &next
	}
	if result.Page > 1 {
		prev := pageURL(c, result.Page-1)
		pagination.Previous = &prev
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Success:    true,
		Message:    "Paginated results",
		Pagination: pagination,
		Data:       result.Items,
	})
}

func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	query.Set("page", strconv.Itoa(page))
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// ============================================================================
// 7. Парсинг параметров
// ============================================================================

func ParseQueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *BaseHandler) ParsePagination(c *gin.Context) repositories.Page {
	const defaultPage = 1

	page := ParseQueryInt(c, "page", defaultPage)
	if page <= 0 {
		page = defaultPage
	}

	pageSize := ParseQueryInt(c, "page_size", h.pagination.DefaultPageSize)
	if pageSize <= 0 {
		pageSize = h.pagination.DefaultPageSize
	}
	if pageSize > h.pagination.MaxPageSize {
		pageSize = h.pagination.MaxPageSize
	}

	return repositories.Page{Page: page, PageSize: pageSize}
}
