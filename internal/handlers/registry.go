package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	CategoryHandler     *CategoryHandler
	EndpointHandler     *EndpointHandler
	ExampleHandler      *ExampleHandler
	ResponseHandler     *ResponseHandler
	MediaHandler        *MediaHandler
	FileHandler         *FileHandler
	SubscriptionHandler *SubscriptionHandler
	UsageHandler        *UsageHandler
	PlanHandler         *PlanHandler
	PaymentHandler      *PaymentHandler
	HealthHandler       *HealthHandler
}
