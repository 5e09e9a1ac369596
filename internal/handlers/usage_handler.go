package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// UsageHandler - журнал обращений (/logs)
type UsageHandler struct {
	*BaseHandler
	usageService services.UsageService
}

func NewUsageHandler(base *BaseHandler, usageService services.UsageService) *UsageHandler {
	return &UsageHandler{
		BaseHandler:  base,
		usageService: usageService,
	}
}

func (h *UsageHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	logs := rg.Group("/logs")
	logs.Use(g.Auth)
	{
		logs.GET("/user", h.ListMine)
		logs.GET("/user/count", h.CountMine)
		logs.GET("/user/:id", h.GetMine)

		admin := logs.Group("/admin")
		admin.Use(g.Admin)
		{
			admin.GET("", h.List)
			admin.GET("/:id", h.Get)
			admin.DELETE("/:id", h.Delete)
		}
	}
}

// usageQuery: ?endpoint=<slug|id>&status_code=<code>&days=<n>
func usageQuery(c *gin.Context) services.UsageQuery {
	return services.UsageQuery{
		Endpoint:   c.Query("endpoint"),
		StatusCode: ParseQueryInt(c, "status_code", 0),
		Days:       ParseQueryInt(c, "days", 0),
	}
}

func (h *UsageHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	result, err := h.usageService.ListForUser(h.GetDB(c), userID, usageQuery(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *UsageHandler) GetMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	usage, err := h.usageService.GetForUser(h.GetDB(c), userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Usage record retrieved", usage)
}

// CountMine - число обращений за последние days дней (по умолчанию 30)
func (h *UsageHandler) CountMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	query := usageQuery(c)
	query.StatusCode = 0
	count, err := h.usageService.CountForUser(h.GetDB(c), userID, query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Usage count retrieved", dto.UsageCountResponse{
		Count:      count.Count,
		Since:      count.Since,
		EndpointID: count.EndpointID,
	})
}

// List: ?user=<id>&username=<name> плюс фильтры usageQuery
func (h *UsageHandler) List(c *gin.Context) {
	query := usageQuery(c)
	query.UserID = c.Query("user")
	query.Username = c.Query("username")

	result, err := h.usageService.List(h.GetDB(c), query, h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *UsageHandler) Get(c *gin.Context) {
	usage, err := h.usageService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Usage record retrieved", usage)
}

func (h *UsageHandler) Delete(c *gin.Context) {
	if err := h.usageService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Usage record deleted")
}
