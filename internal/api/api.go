package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/service"
)

// Services bundles everything the HTTP handlers depend on.
type Services struct {
	DB           *gorm.DB
	Auth         service.IAuthService
	Recipes      service.IRecipeService
	Images       *service.ImageService
	Categories   service.ICategoryService
	Companies    service.ICompanyService
	Invitations  service.IInvitationService
	Admin        service.IAdminService
	Audit        *service.AuditService
	LoginLimiter *middleware.RateLimiter
	ResetLimiter *middleware.RateLimiter

	TokenTTL     time.Duration
	SecureCookie bool
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, s *Services) {
	health := NewHealthHandler(s.DB)
	router.GET("/health", health.HealthCheck)

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", health.HealthCheck)

	NewAuthHandler(s.Auth, s.TokenTTL, s.SecureCookie, s.LoginLimiter, s.ResetLimiter).RegisterRoutes(apiGroup)
	NewRecipeHandler(s.Recipes, s.Images, s.Auth).RegisterRoutes(apiGroup)
	NewCategoryHandler(s.Categories, s.Auth).RegisterRoutes(apiGroup)
	NewCompanyHandler(s.Companies, s.Invitations, s.Auth).RegisterRoutes(apiGroup)
	NewAdminHandler(s.Admin, s.Audit, s.Auth).RegisterRoutes(apiGroup)
}
