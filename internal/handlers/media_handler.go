package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/services"
	"apimarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// maxMultipartMemory - остаток формы сверх лимита gin пишет во временные файлы
const maxMultipartMemory = 32 << 20

type MediaHandler struct {
	*BaseHandler
	mediaService services.MediaService
}

func NewMediaHandler(base *BaseHandler, mediaService services.MediaService) *MediaHandler {
	return &MediaHandler{
		BaseHandler:  base,
		mediaService: mediaService,
	}
}

func (h *MediaHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	media := rg.Group("/media")
	{
		media.GET("", h.List)
		media.GET("/:id", h.Get)
	}

	admin := media.Group("")
	admin.Use(g.Auth, g.Admin)
	{
		admin.POST("", h.Upload)
		admin.PATCH("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

func (h *MediaHandler) List(c *gin.Context) {
	result, err := h.mediaService.List(h.GetDB(c), c.Query("endpoint"), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *MediaHandler) Get(c *gin.Context) {
	media, err := h.mediaService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Media retrieved", media)
}

// Upload - multipart: endpoint, description, file
func (h *MediaHandler) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to parse form: "+err.Error()))
		return
	}

	var req dto.CreateMediaRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid form data: "+err.Error()))
		return
	}
	if !h.validate(c, &req) {
		return
	}

	var upload *services.MediaUpload
	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read uploaded file"))
			return
		}
		defer file.Close()

		upload = &services.MediaUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Reader:      file,
		}
	}

	media, err := h.mediaService.Create(h.GetDB(c), &req, upload)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Media uploaded", media)
}

func (h *MediaHandler) Update(c *gin.Context) {
	var req dto.UpdateMediaRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	media, err := h.mediaService.Update(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Media updated", media)
}

func (h *MediaHandler) Delete(c *gin.Context) {
	if err := h.mediaService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Media deleted")
}
