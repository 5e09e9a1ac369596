package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler - подписки на отдельные эндпоинты
type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
	usageService        services.UsageService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService, usageService services.UsageService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
		usageService:        usageService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	subscriptions := rg.Group("/subscriptions")
	subscriptions.Use(g.Auth)
	{
		subscriptions.GET("/my", h.ListMine)
		subscriptions.POST("", h.Subscribe)

		admin := subscriptions.Group("")
		admin.Use(g.Admin)
		{
			admin.GET("", h.List)
			admin.GET("/:id", h.Get)
			admin.DELETE("/:id", h.Delete)
		}
	}

	usages := rg.Group("/usages")
	usages.Use(g.Auth, g.Admin)
	{
		usages.GET("", h.ListUsages)
		usages.GET("/:id", h.GetUsage)
	}
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.SubscribeEndpointRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Subscribe(h.GetDB(c), userID, req.EndpointSlug)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Subscribed to endpoint", sub)
}

func (h *SubscriptionHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	result, err := h.subscriptionService.ListMine(h.GetDB(c), userID, h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

// List: ?user=<id>&endpoint=<id>
func (h *SubscriptionHandler) List(c *gin.Context) {
	filter := repositories.SubscriptionFilter{
		UserID:     c.Query("user"),
		EndpointID: c.Query("endpoint"),
	}
	result, err := h.subscriptionService.List(h.GetDB(c), filter, h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.subscriptionService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Subscription retrieved", sub)
}

func (h *SubscriptionHandler) Delete(c *gin.Context) {
	if err := h.subscriptionService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Subscription deleted")
}

// ListUsages: ?subscription=<id> плюс фильтры usageQuery
func (h *SubscriptionHandler) ListUsages(c *gin.Context) {
	query := usageQuery(c)
	query.SubscriptionID = c.Query("subscription")
	result, err := h.usageService.List(h.GetDB(c), query, h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	usage, err := h.usageService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Usage record retrieved", usage)
}
