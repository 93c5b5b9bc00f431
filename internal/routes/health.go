package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cxc-checkin/internal/utils"
)

func Health(r *gin.RouterGroup) {
	r.GET("/health", func(c *gin.Context) {
		msg := c.Query("ping")
		if msg == "" {
			msg = "pong"
		}

		resp := gin.H{
			"message": msg,
			"version": utils.GetVersion(),
		}

		if store := services(c).Storage; store != nil {
			version, err := store.GetSchemaVersion(c.Request.Context())
			if err != nil {
				AbortWithError(c, fmt.Errorf("%w: %v", ErrServiceUnavailable, err))
				return
			}
			resp["schema_version"] = version
		}

		c.JSON(http.StatusOK, resp)
	})
}
