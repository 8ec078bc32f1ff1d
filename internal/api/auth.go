package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/types"
)

// AuthHandler serves registration, sessions and password management.
type AuthHandler struct {
	authService  service.IAuthService
	tokenTTL     time.Duration
	secureCookie bool
	loginLimiter *middleware.RateLimiter
	resetLimiter *middleware.RateLimiter
}

func NewAuthHandler(authService service.IAuthService, tokenTTL time.Duration, secureCookie bool, loginLimiter, resetLimiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		loginLimiter: loginLimiter,
		resetLimiter: resetLimiter,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.loginLimiter.Middleware(middleware.ByClientIP), h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/forgot-password", h.resetLimiter.Middleware(middleware.ByClientIP), h.ForgotPassword)
		auth.POST("/reset-password", h.resetLimiter.Middleware(middleware.ByClientIP), h.ResetPassword)

		authed := auth.Group("")
		authed.Use(middleware.AuthMiddleware(h.authService))
		authed.GET("/me", h.Me)
		authed.PUT("/password", h.ChangePassword)
	}
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.startSession(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.startSession(c, http.StatusOK, user)
}

func (h *AuthHandler) startSession(c *gin.Context, status int, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, token, int(h.tokenTTL.Seconds()))
	c.JSON(status, sessionResponse{User: user, Token: token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, value, maxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	account, err := h.authService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req types.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	userID, _ := middleware.UserID(c)
	if err := h.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// ForgotPassword always answers 200 so the endpoint cannot be used to discover
// registered addresses.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req types.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req types.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password has been reset"})
}
