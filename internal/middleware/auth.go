package middleware

import (
	"strings"

	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/models"
	"apimarket_backend/pkg/apperrors"
	"apimarket_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Authenticator загружает пользователя по access-токену
type Authenticator interface {
	Authenticate(db *gorm.DB, accessToken string) (*models.User, error)
}

// AuthMiddleware - обязательная аутентификация по Bearer-токену
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			c.Abort()
			return
		}

		user, err := authenticator.Authenticate(getDB(c), token)
		if err != nil {
			apperrors.HandleError(c, err)
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RequireAdmin ставится после AuthMiddleware
func RequireAdmin() gin.HandlerFunc {
	return requireCapability(auth.IsAdmin, apperrors.ErrPermissionDenied)
}

func requireCapability(allowed func(*models.User) bool, denied error) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !auth.IsAuthenticated(user) {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			c.Abort()
			return
		}
		if !allowed(user) {
			apperrors.HandleError(c, denied)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser - пользователь, выставленный AuthMiddleware, или nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextkeys.UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(contextkeys.UserKey, user)
	c.Set(contextkeys.UserIDKey, user.ID)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), user.ID))

	// db в контексте должен видеть обновленный контекст запроса
	if db := getDB(c); db != nil {
		c.Set(string(contextkeys.DBContextKey), db.WithContext(c.Request.Context()))
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
