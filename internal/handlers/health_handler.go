package handlers

import (
	"net/http"

	"apimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	*BaseHandler
}

func NewHealthHandler(base *BaseHandler) *HealthHandler {
	return &HealthHandler{BaseHandler: base}
}

func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health проверяет доступность базы
func (h *HealthHandler) Health(c *gin.Context) {
	sqlDB, err := h.GetDB(c).DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		apperrors.HandleError(c, apperrors.DatabaseError(err))
		return
	}
	h.Success(c, http.StatusOK, "OK", gin.H{"status": "ok"})
}
