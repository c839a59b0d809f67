package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleGuardConfig holds configuration for the role guard middleware
type RoleGuardConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
}

// RequireRole creates middleware that lets a request through only when the
// authenticated user's role is one of the listed roles. It relies on the
// JWT middleware having stored the claims in the context.
func RequireRole(roles ...string) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleGuardConfig{}, roles...)
}

// RequireRoleWithConfig creates the role guard with custom config
func RequireRoleWithConfig(cfg RoleGuardConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetJWTRole(c)
		if role == "" {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		handleRoleDenied(c, cfg, roles, "User role not permitted for this operation")
	}
}

// handleRoleDenied rejects the request with 403
func handleRoleDenied(c *gin.Context, cfg RoleGuardConfig, roles []string, reason string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Role check failed",
			zap.String("user_id", GetJWTUserID(c)),
			zap.String("role", GetJWTRole(c)),
			zap.Strings("required_any", roles),
			zap.String("reason", reason),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Insufficient role for this operation",
		},
	})
}
