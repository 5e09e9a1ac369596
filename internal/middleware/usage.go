package middleware

import (
	"net/http"

	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TrackUsage учитывает успешные обращения к маршруту после ответа хэндлера.
// slugParam - имя параметра пути со slug эндпоинта.
func TrackUsage(recorder services.UsageRecorder, slugParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, _ := snapshotBody(c)
		c.Next()

		user := CurrentUser(c)
		if !auth.IsAuthenticated(user) || c.Writer.Status() >= http.StatusBadRequest {
			logger.CtxDebug(c.Request.Context(), "Usage not recorded", "path", c.Request.URL.Path, "status", c.Writer.Status())
			return
		}

		recorder.Record(c.Request.Context(), getDB(c), services.UsageObservation{
			UserID:       user.ID,
			EndpointSlug: c.Param(slugParam),
			Path:         c.Request.URL.Path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			RawBody:      body,
			Query:        c.Request.URL.Query(),
		})
	}
}
