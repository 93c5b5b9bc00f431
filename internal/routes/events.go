package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cxc-checkin/internal/events"
	"cxc-checkin/internal/storage"
)

func EventRoutes(r *gin.RouterGroup) {
	// GET /api/admin/events?current_only=true
	r.GET("", RequirePermission("events", "read"), func(c *gin.Context) {
		svc := services(c).Events
		ctx := c.Request.Context()

		var (
			list []storage.Event
			err  error
		)
		if c.Query("current_only") == "true" {
			list, err = svc.HappeningNow(ctx)
		} else {
			list, err = svc.List(ctx)
		}
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": list})
	})

	r.POST("", RequirePermission("events", "create"), func(c *gin.Context) {
		var in events.EventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}

		event, err := services(c).Events.Create(c.Request.Context(), in)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"event": event})
	})

	r.GET("/:id", RequirePermission("events", "read"), func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		event, err := services(c).Events.Get(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"event": event})
	})

	r.PATCH("/:id", RequirePermission("events", "update"), func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		var patch events.EventPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}

		event, err := services(c).Events.Update(c.Request.Context(), id, patch)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"event": event})
	})

	r.DELETE("/:id", RequirePermission("events", "delete"), func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if err := services(c).Events.Delete(c.Request.Context(), id); err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event deleted"})
	})

	r.GET("/:id/attendance", RequirePermission("attendance", "read"), func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		rows, err := services(c).CheckIn.Attendance(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"attendance": rows})
	})
}
