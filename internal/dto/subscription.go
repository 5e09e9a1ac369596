package dto

import "time"

type SubscribeEndpointRequest struct {
	EndpointSlug string `json:"endpoint_slug" validate:"required"`
}

type UsageCountResponse struct {
	Count      int64     `json:"count"`
	Since      time.Time `json:"since"`
	EndpointID string    `json:"endpoint_id,omitempty"`
}

type CreatePlanRequest struct {
	Name         string   `json:"name" validate:"required,max=50"`
	Description  string   `json:"description"`
	Price        *float64 `json:"price" validate:"required,min=0"`
	DurationDays int      `json:"duration_days" validate:"required,min=1"`
	IsActive     *bool    `json:"is_active"`
}

type UpdatePlanRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=50"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" validate:"omitempty,min=0"`
	DurationDays *int     `json:"duration_days" validate:"omitempty,min=1"`
	IsActive     *bool    `json:"is_active"`
}

type SubscribePlanRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type UpdateUserSubscriptionRequest struct {
	EndDate *time.Time `json:"end_date"`
	Active  *bool      `json:"active"`
}
