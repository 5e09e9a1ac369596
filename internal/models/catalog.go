package models

import (
	"gorm.io/datatypes"
)

type Category struct {
	BaseModel
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `gorm:"size:100" json:"icon"`

	Endpoints []Endpoint `gorm:"foreignKey:CategoryID" json:"-"`
}

func (Category) TableName() string { return "categories" }

// Endpoint - каталогизированный сторонний API
type Endpoint struct {
	BaseModel
	CategoryID    string         `gorm:"type:uuid;not null;index" json:"category_id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	Slug          string         `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	Documentation string         `gorm:"type:text" json:"documentation"`
	Method        HTTPMethod     `gorm:"size:10;not null;default:'GET'" json:"method"`
	URL           string         `gorm:"not null" json:"url"`
	PathParams    datatypes.JSON `json:"path_params"`
	QueryParams   datatypes.JSON `json:"query_params"`
	IsPremium     bool           `gorm:"not null;default:false" json:"is_premium"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Endpoint) TableName() string { return "endpoints" }

type Example struct {
	BaseModel
	EndpointID  string `gorm:"type:uuid;not null;uniqueIndex:idx_example_endpoint_lang_type" json:"endpoint_id"`
	Language    string `gorm:"size:50;not null;uniqueIndex:idx_example_endpoint_lang_type" json:"language"`
	RequestType string `gorm:"size:50;not null;uniqueIndex:idx_example_endpoint_lang_type" json:"request_type"`
	CodeSnippet string `gorm:"type:text" json:"code_snippet"`
}

func (Example) TableName() string { return "examples" }

// ResponseModel - описание ответа эндпоинта, выдается по возрастанию status_code
type ResponseModel struct {
	BaseModel
	EndpointID string         `gorm:"type:uuid;not null;index" json:"endpoint_id"`
	StatusCode int            `gorm:"not null;default:200" json:"status_code"`
	MediaType  string         `gorm:"size:100;not null;default:'application/json'" json:"media_type"`
	Headers    datatypes.JSON `json:"headers"`
	Body       datatypes.JSON `json:"body"`
}

func (ResponseModel) TableName() string { return "response_models" }

type Media struct {
	BaseModel
	EndpointID  string `gorm:"type:uuid;not null;index" json:"endpoint_id"`
	File        string `gorm:"not null" json:"file"`
	URL         string `json:"url"`
	ContentType string `gorm:"size:100" json:"content_type"`
	Size        int64  `json:"size"`
	Description string `gorm:"type:text" json:"description"`
}

func (Media) TableName() string { return "media" }

// EndpointDetail - эндпоинт вместе с живыми дочерними сущностями
type EndpointDetail struct {
	Endpoint
	Examples  []Example       `json:"examples"`
	Responses []ResponseModel `json:"responses"`
	Media     []Media         `json:"media"`
}
