// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/services"
	"github.com/javajoker/catalog-api/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func tokenBody(resp *services.AuthResponse) gin.H {
	return gin.H{
		"user":       resp.User,
		"access":     resp.AccessToken,
		"refresh":    resp.RefreshToken,
		"token_type": resp.TokenType,
		"expires_in": resp.ExpiresIn,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	body := tokenBody(resp)
	body["message"] = i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthRegisterSuccess)
	utils.CreatedResponse(c, body)
}

// POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, tokenBody(resp))
}

// POST /auth/token/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req services.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, tokenBody(resp))
}
