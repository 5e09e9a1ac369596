package handlers

import (
	"net/http"

	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes регистрирует маршруты /auth
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, g Guards) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", g.LoginLimit, h.Login)
		auth.POST("/token/refresh", h.RefreshToken)
	}

	protected := auth.Group("")
	protected.Use(g.Auth)
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/profile", h.GetProfile)
		protected.PATCH("/profile", h.UpdateProfile)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.Register(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusCreated, "User registered successfully", user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Login successful", resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	tokens, err := h.authService.RefreshToken(c.Request.Context(), h.GetDB(c), req.Refresh)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Token refreshed", tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.LogoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), h.GetDB(c), userID, req.RefreshToken); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.NoContent(c, "Logged out successfully")
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Profile retrieved", user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Success(c, http.StatusOK, "Profile updated", user)
}
