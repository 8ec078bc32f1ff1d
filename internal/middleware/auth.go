package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/types"
)

// CookieName is the session cookie set on login.
const CookieName = "auth-token"

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// tokenFromRequest prefers the session cookie and falls back to a Bearer header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// AuthMiddleware creates a middleware that validates JWT tokens. When the
// validator can also load users, writes are refused for accounts deleted
// after the token was issued.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	users, _ := validator.(UserLookup)
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		if users != nil && isMutating(c.Request.Method) {
			if _, err := users.GetUserByID(c.Request.Context(), claims.UserID); err != nil {
				if errors.Is(err, service.ErrNotFound) {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
					return
				}
				logger.Error(c.Request.Context(), "failed to load session user", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
		}

		// Store user info in context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("is_admin", claims.IsAdmin)
		c.Set("account_type", claims.AccountType)

		ctx := logger.WithFields(c.Request.Context(), zap.String("user_id", claims.UserID.String()))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminMiddleware allows only administrators. The flag is re-read from the
// database so a revoked admin loses access before the token expires.
func AdminMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator access required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
