package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	*BaseHandler
	categoryService services.CategoryService
}

func NewCategoryHandler(base *BaseHandler, categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		BaseHandler:     base,
		categoryService: categoryService,
	}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	categories := rg.Group("/categories")
	{
		categories.GET("", h.List)
		categories.GET("/:slug", h.Get)
	}

	admin := categories.Group("")
	admin.Use(g.Auth, g.Admin)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:slug", h.Update)
		admin.DELETE("/:slug", h.Delete)

		// корзина
		admin.GET("/deleted", h.ListDeleted)
		admin.POST("/:slug/restore", h.Restore)
		admin.DELETE("/:slug/hard", h.HardDelete)
	}
}

func (h *CategoryHandler) List(c *gin.Context) {
	result, err := h.categoryService.List(h.GetDB(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.categoryService.Get(h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Category retrieved", category)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	category, err := h.categoryService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Category created", category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var req dto.UpdateCategoryRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	category, err := h.categoryService.Update(h.GetDB(c), c.Param("slug"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Category updated", category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categoryService.Delete(h.GetDB(c), c.Param("slug")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Category deleted")
}

func (h *CategoryHandler) ListDeleted(c *gin.Context) {
	result, err := h.categoryService.ListDeleted(h.GetDB(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *CategoryHandler) Restore(c *gin.Context) {
	category, err := h.categoryService.Restore(h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Category restored", category)
}

func (h *CategoryHandler) HardDelete(c *gin.Context) {
	if err := h.categoryService.HardDelete(h.GetDB(c), c.Param("slug")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Category permanently deleted")
}
