package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	*BaseHandler
	planService services.PlanService
}

func NewPlanHandler(base *BaseHandler, planService services.PlanService) *PlanHandler {
	return &PlanHandler{
		BaseHandler: base,
		planService: planService,
	}
}

func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	plans := rg.Group("/plans")
	plans.Use(g.Auth)
	{
		plans.GET("/active", h.ListActive)
		plans.POST("/subscribe", h.Subscribe)
		plans.GET("/me", h.MySubscriptions)

		admin := plans.Group("")
		admin.Use(g.Admin)
		{
			admin.GET("", h.ListAll)
			admin.POST("", h.Create)

			admin.GET("/subscriptions", h.ListUserSubscriptions)
			admin.GET("/subscriptions/:id", h.GetUserSubscription)
			admin.PATCH("/subscriptions/:id", h.UpdateUserSubscription)
			admin.DELETE("/subscriptions/:id", h.DeleteUserSubscription)

			admin.GET("/:id", h.Get)
			admin.PATCH("/:id", h.Update)
			admin.DELETE("/:id", h.Delete)
		}
	}
}

func (h *PlanHandler) ListActive(c *gin.Context) {
	result, err := h.planService.ListActive(h.GetDB(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *PlanHandler) Subscribe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.SubscribePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.planService.Subscribe(h.GetDB(c), userID, req.PlanID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Subscribed to plan", sub)
}

func (h *PlanHandler) MySubscriptions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	result, err := h.planService.MySubscriptions(h.GetDB(c), userID, h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *PlanHandler) ListAll(c *gin.Context) {
	result, err := h.planService.ListAll(h.GetDB(c), h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.planService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Plan retrieved", plan)
}

func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.planService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "Plan created", plan)
}

func (h *PlanHandler) Update(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.planService.Update(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Plan updated", plan)
}

func (h *PlanHandler) Delete(c *gin.Context) {
	if err := h.planService.Delete(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Plan deleted")
}

// ListUserSubscriptions: ?user=<id>&plan=<id>&active=true
func (h *PlanHandler) ListUserSubscriptions(c *gin.Context) {
	filter := repositories.UserSubscriptionFilter{
		UserID:     c.Query("user"),
		PlanID:     c.Query("plan"),
		ActiveOnly: c.Query("active") == "true",
	}
	result, err := h.planService.ListUserSubscriptions(h.GetDB(c), filter, h.ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondPage(c, result)
}

func (h *PlanHandler) GetUserSubscription(c *gin.Context) {
	sub, err := h.planService.GetUserSubscription(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Subscription retrieved", sub)
}

func (h *PlanHandler) UpdateUserSubscription(c *gin.Context) {
	var req dto.UpdateUserSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.planService.UpdateUserSubscription(h.GetDB(c), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Subscription updated", sub)
}

func (h *PlanHandler) DeleteUserSubscription(c *gin.Context) {
	if err := h.planService.DeleteUserSubscription(h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Subscription deleted")
}
