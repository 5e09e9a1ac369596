package dto

import "encoding/json"

type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Slug        *string `json:"slug" validate:"omitempty,max=80"`
	Description string  `json:"description"`
	Icon        string  `json:"icon" validate:"max=100"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Slug        *string `json:"slug" validate:"omitempty,max=80"`
	Description *string `json:"description"`
	Icon        *string `json:"icon" validate:"omitempty,max=100"`
}

// CreateEndpointRequest: category - slug или id категории
type CreateEndpointRequest struct {
	Category      string          `json:"category" validate:"required"`
	Name          string          `json:"name" validate:"required,max=100"`
	Slug          *string         `json:"slug" validate:"omitempty,max=120"`
	Description   string          `json:"description"`
	Documentation string          `json:"documentation"`
	Method        string          `json:"method" validate:"required,is-http-method"`
	URL           string          `json:"url" validate:"required,url"`
	PathParams    json.RawMessage `json:"path_params"`
	QueryParams   json.RawMessage `json:"query_params"`
	IsPremium     bool            `json:"is_premium"`
}

type UpdateEndpointRequest struct {
	Category      *string         `json:"category"`
	Name          *string         `json:"name" validate:"omitempty,max=100"`
	Slug          *string         `json:"slug" validate:"omitempty,max=120"`
	Description   *string         `json:"description"`
	Documentation *string         `json:"documentation"`
	Method        *string         `json:"method" validate:"omitempty,is-http-method"`
	URL           *string         `json:"url" validate:"omitempty,url"`
	PathParams    json.RawMessage `json:"path_params"`
	QueryParams   json.RawMessage `json:"query_params"`
	IsPremium     *bool           `json:"is_premium"`
}

// EndpointAccessResponse - результат обращения к отслеживаемому эндпоинту
type EndpointAccessResponse struct {
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method"`
	URL       string `json:"url"`
	IsPremium bool   `json:"is_premium"`
}

// Примеры, ответы и медиа ссылаются на эндпоинт по slug

type CreateExampleRequest struct {
	Endpoint    string `json:"endpoint" validate:"required"`
	Language    string `json:"language" validate:"required,max=50"`
	RequestType string `json:"request_type" validate:"required,max=50"`
	CodeSnippet string `json:"code_snippet" validate:"required"`
}

type UpdateExampleRequest struct {
	Language    *string `json:"language" validate:"omitempty,max=50"`
	RequestType *string `json:"request_type" validate:"omitempty,max=50"`
	CodeSnippet *string `json:"code_snippet"`
}

type CreateResponseModelRequest struct {
	Endpoint   string          `json:"endpoint" validate:"required"`
	StatusCode int             `json:"status_code" validate:"omitempty,min=100,max=599"`
	MediaType  string          `json:"media_type" validate:"omitempty,max=100"`
	Headers    json.RawMessage `json:"headers"`
	Body       json.RawMessage `json:"body"`
}

type UpdateResponseModelRequest struct {
	StatusCode *int            `json:"status_code" validate:"omitempty,min=100,max=599"`
	MediaType  *string         `json:"media_type" validate:"omitempty,max=100"`
	Headers    json.RawMessage `json:"headers"`
	Body       json.RawMessage `json:"body"`
}

// CreateMediaRequest - поля multipart формы, файл передается отдельно
type CreateMediaRequest struct {
	Endpoint    string `form:"endpoint" json:"endpoint" validate:"required"`
	Description string `form:"description" json:"description"`
}

type UpdateMediaRequest struct {
	Description *string `json:"description"`
}
