package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ResponseHandler - описания ответов эндпоинтов
type ResponseHandler struct {
	*BaseHandler
	responseService services.ResponseModelService
}

func NewResponseHandler(base *BaseHandler, responseService services.ResponseModelService) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:     base,
		responseService: responseService,
	}
}

func (h *ResponseHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	responses := rg.Group("/responses")
	{
		responses.GET("", h.List)
		responses.GET("/:id", h.Get)
	}

	admin := responses.Group("")
	admin.Use(g.Auth, g.Admin)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

func (h *ResponseHandler) List(c *gin.Context) {
	result, err := h.responseService.List(h.GetDB(c), c.Query("endpoint"), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *ResponseHandler) Get(c *gin.Context) {
	response, err := h.responseService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Response model retrieved", response)
}

func (h *ResponseHandler) Create(c *gin.Context) {
	var req dto.CreateResponseModelRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.responseService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Response model created", response)
}

func (h *ResponseHandler) Update(c *gin.Context) {
	var req dto.UpdateResponseModelRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.responseService.Update(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Response model updated", response)
}

func (h *ResponseHandler) Delete(c *gin.Context) {
	if err := h.responseService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Response model deleted")
}
