package middleware

import (
	"net/http"
	"slices"

	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	Logger *zap.Logger
}

// RequireRole allows the request when the authenticated user has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig is RequireRole with logging of denials
func RequireRoleWithConfig(cfg RoleConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}

		if !slices.Contains(roles, claims.Role) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Role check failed",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
					zap.Strings("required_any", roles),
					zap.String("path", c.Request.URL.Path),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Your role does not allow this action", GetRequestID(c)))
			return
		}

		c.Next()
	}
}
