package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ExampleHandler struct {
	*BaseHandler
	exampleService services.ExampleService
}

func NewExampleHandler(base *BaseHandler, exampleService services.ExampleService) *ExampleHandler {
	return &ExampleHandler{
		BaseHandler:    base,
		exampleService: exampleService,
	}
}

func (h *ExampleHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	examples := rg.Group("/examples")
	{
		examples.GET("", h.List)
		examples.GET("/:id", h.Get)
	}

	admin := examples.Group("")
	admin.Use(g.Auth, g.Admin)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

func (h *ExampleHandler) List(c *gin.Context) {
	result, err := h.exampleService.List(h.GetDB(c), c.Query("endpoint"), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *ExampleHandler) Get(c *gin.Context) {
	example, err := h.exampleService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Example retrieved", example)
}

func (h *ExampleHandler) Create(c *gin.Context) {
	var req dto.CreateExampleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	example, err := h.exampleService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Example created", example)
}

func (h *ExampleHandler) Update(c *gin.Context) {
	var req dto.UpdateExampleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	example, err := h.exampleService.Update(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Example updated", example)
}

func (h *ExampleHandler) Delete(c *gin.Context) {
	if err := h.exampleService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Example deleted")
}
