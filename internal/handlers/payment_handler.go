package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	payments := rg.Group("/payments")
	payments.Use(g.Auth)
	{
		payments.POST("/create", h.Create)
		payments.POST("/verify", h.Verify)
		payments.GET("/user", h.ListMine)

		admin := payments.Group("/admin")
		admin.Use(g.Admin)
		{
			admin.GET("", h.List)
			admin.GET("/:id", h.Get)
			admin.PATCH("/:id/status", h.UpdateStatus)
			admin.DELETE("/:id", h.Delete)
			admin.POST("/:id/restore", h.Restore)
		}
	}
}

func (h *PaymentHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CreatePaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreatePayment(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Payment created", resp)
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req dto.VerifyPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.VerifyPayment(c.Request.Context(), h.GetDB(c), user, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Payment verified", resp)
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	result, err := h.paymentService.ListForUser(h.GetDB(c), userID, paymentFilter(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

// paymentFilter: ?status=<status>&payment_method=<method>
func paymentFilter(c *gin.Context) repositories.PaymentFilter {
	return repositories.PaymentFilter{
		Status:        models.PaymentStatus(c.Query("status")),
		PaymentMethod: models.PaymentMethod(c.Query("payment_method")),
	}
}

func (h *PaymentHandler) List(c *gin.Context) {
	result, err := h.paymentService.List(h.GetDB(c), paymentFilter(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.paymentService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Payment retrieved", payment)
}

func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdatePaymentStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	payment, err := h.paymentService.UpdateStatus(c.Request.Context(), h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Payment status updated", payment)
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.paymentService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Payment deleted")
}

func (h *PaymentHandler) Restore(c *gin.Context) {
	payment, err := h.paymentService.Restore(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Payment restored", payment)
}
