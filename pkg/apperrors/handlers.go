package apperrors

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный конверт ошибки
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors"`
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

// Debug включается из конфига при старте (development).
var Debug = false

// HandleGinError - единственное место, где ошибка превращается в HTTP-ответ
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
		if h.Debug && err != nil {
			appErr.Details = gin.H{"detail": err.Error()}
		}
	}

	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "server error", "error", fmt.Sprint(appErr.Unwrap()), "path", c.Request.URL.Path)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, BuildErrorResponse(appErr))
}

// BuildErrorResponse собирает конверт {success:false, message, errors}
func BuildErrorResponse(appErr *AppError) ErrorResponse {
	errs := appErr.Details
	if errs == nil {
		detail := appErr.Message
		if detail == "" {
			detail = http.StatusText(appErr.HTTPCode)
		}
		errs = gin.H{"detail": detail}
	}

	message := appErr.Message
	if message == "" {
		message = PickMessage(errs)
	}
	if message == "" {
		message = http.StatusText(appErr.HTTPCode)
	}

	return ErrorResponse{
		Success: false,
		Message: message,
		Errors:  errs,
	}
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: Debug}
	handler.HandleGinError(c, err)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// PickMessage выбирает человекочитаемое сообщение из структуры ошибок:
// map -> первая ошибка первого поля (поля по алфавиту),
// list -> первый элемент, строка -> она сама.
func PickMessage(errs interface{}) string {
	switch v := errs.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		return PickMessage(v[0])
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			return ""
		}
		sort.Strings(keys)
		return v[keys[0]]
	case map[string][]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			return ""
		}
		sort.Strings(keys)
		return PickMessage(v[keys[0]])
	case gin.H:
		return PickMessage(map[string]interface{}(v))
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			return ""
		}
		sort.Strings(keys)
		return PickMessage(v[keys[0]])
	default:
		return fmt.Sprint(v)
	}
}
