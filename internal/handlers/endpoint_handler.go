package handlers

import (
	"net/http"
	"strconv"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type EndpointHandler struct {
	*BaseHandler
	endpointService services.EndpointService
}

func NewEndpointHandler(base *BaseHandler, endpointService services.EndpointService) *EndpointHandler {
	return &EndpointHandler{
		BaseHandler:     base,
		endpointService: endpointService,
	}
}

func (h *EndpointHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	endpoints := rg.Group("/endpoints")
	{
		endpoints.GET("", h.List)
		endpoints.GET("/:slug", h.Get)
		endpoints.GET("/:slug/access", g.Auth, g.TrackUsage, h.Access)
	}

	admin := endpoints.Group("")
	admin.Use(g.Auth, g.Admin)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:slug", h.Update)
		admin.DELETE("/:slug", h.Delete)

		admin.GET("/deleted", h.ListDeleted)
		admin.POST("/:slug/restore", h.Restore)
		admin.DELETE("/:slug/hard", h.HardDelete)
	}
}

// List: ?category=<slug>&search=<text>&is_premium=true|false
func (h *EndpointHandler) List(c *gin.Context) {
	filter := repositories.EndpointFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
	}
	if raw := c.Query("is_premium"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.IsPremium = &v
		}
	}

	result, err := h.endpointService.List(h.GetDB(c), filter, h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *EndpointHandler) Get(c *gin.Context) {
	detail, err := h.endpointService.GetDetail(h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Endpoint retrieved", detail)
}

func (h *EndpointHandler) Create(c *gin.Context) {
	var req dto.CreateEndpointRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	endpoint, err := h.endpointService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Endpoint created", endpoint)
}

func (h *EndpointHandler) Update(c *gin.Context) {
	var req dto.UpdateEndpointRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	endpoint, err := h.endpointService.Update(h.GetDB(c), c.Param("slug"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Endpoint updated", endpoint)
}

func (h *EndpointHandler) Delete(c *gin.Context) {
	if err := h.endpointService.Delete(h.GetDB(c), c.Param("slug")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Endpoint deleted")
}

func (h *EndpointHandler) ListDeleted(c *gin.Context) {
	result, err := h.endpointService.ListDeleted(h.GetDB(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *EndpointHandler) Restore(c *gin.Context) {
	endpoint, err := h.endpointService.Restore(h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Endpoint restored", endpoint)
}

func (h *EndpointHandler) HardDelete(c *gin.Context) {
	if err := h.endpointService.HardDelete(h.GetDB(c), c.Param("slug")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Endpoint permanently deleted")
}

// Access - отслеживаемое обращение к эндпоинту
func (h *EndpointHandler) Access(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	resp, err := h.endpointService.Access(h.GetDB(c), user, c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Access granted", resp)
}
