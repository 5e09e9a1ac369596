package routes

import (
	"net/http"

	"apimarket_backend/internal/handlers"
	"apimarket_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	guards handlers.Guards,
	metricsHandler http.Handler,
) {
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, guards)
		appHandlers.CategoryHandler.RegisterRoutes(api, guards)
		appHandlers.EndpointHandler.RegisterRoutes(api, guards)
		appHandlers.ExampleHandler.RegisterRoutes(api, guards)
		appHandlers.ResponseHandler.RegisterRoutes(api, guards)
		appHandlers.MediaHandler.RegisterRoutes(api, guards)
		appHandlers.FileHandler.RegisterRoutes(api)
		appHandlers.SubscriptionHandler.RegisterRoutes(api, guards)
		appHandlers.UsageHandler.RegisterRoutes(api, guards)
		appHandlers.PlanHandler.RegisterRoutes(api, guards)
		appHandlers.PaymentHandler.RegisterRoutes(api, guards)
		appHandlers.HealthHandler.RegisterRoutes(api)
	}

	if metricsHandler != nil {
		ginRouter.GET("/metrics", gin.WrapH(metricsHandler))
	}
	logger.Debug("HTTP routes registered", "count", len(ginRouter.Routes()))
}
