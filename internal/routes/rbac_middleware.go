package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// RequirePermission creates middleware that checks for specific permission.
// It must run after RequireSession.
func RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := GetUser(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		profile := GetProfile(c)
		if profile == nil {
			AbortWithError(c, ErrProfileRequired)
			return
		}

		if !services(c).RBAC.Can(string(profile.Role), resource, action) {
			slog.Warn("Permission denied",
				"userID", userID,
				"role", profile.Role,
				"resource", resource,
				"action", action)
			AbortWithError(c, ErrInsufficientPermissions)
			return
		}

		slog.Debug("Permission granted",
			"userID", userID,
			"resource", resource,
			"action", action)

		c.Next()
	}
}
