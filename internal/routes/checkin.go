package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cxc-checkin/internal/storage"
)

type checkInRequest struct {
	NfcID   string `json:"nfc_id"`
	EventID flexID `json:"event_id"`
}

// profileSummary is the part of a profile exposed to check-in stations.
func profileSummary(p *storage.Profile) gin.H {
	return gin.H{"id": p.ID, "role": p.Role}
}

func CheckInRoutes(r *gin.RouterGroup) {
	// GET /api/admin/checkin?nfc_id=xxx&event_id=xxx
	r.GET("", RequirePermission("attendance", "read"), func(c *gin.Context) {
		nfcID := c.Query("nfc_id")
		if nfcID == "" {
			AbortWithError(c, fmt.Errorf("%w: nfc_id", ErrMissingParameter))
			return
		}
		eventID, err := parseID(c.Query("event_id"), "event_id")
		if err != nil {
			AbortWithError(c, err)
			return
		}

		checkedIn, profile, err := services(c).CheckIn.Status(c.Request.Context(), eventID, nfcID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"isCheckedIn": checkedIn,
			"profile":     profileSummary(profile),
		})
	})

	r.POST("", RequirePermission("attendance", "create"), func(c *gin.Context) {
		var req checkInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}
		if req.NfcID == "" || req.EventID <= 0 {
			AbortWithHTTPError(c, http.StatusBadRequest, ErrMissingParameter, "Missing nfc_id or event_id", "MISSING_PARAMETER")
			return
		}

		result, err := services(c).CheckIn.CheckIn(c.Request.Context(), int64(req.EventID), req.NfcID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		message := "User checked in successfully"
		if result.AlreadyCheckedIn {
			message = "User was already checked in"
		}
		c.JSON(http.StatusOK, gin.H{
			"success":            true,
			"message":            message,
			"profile":            profileSummary(result.Profile),
			"already_checked_in": result.AlreadyCheckedIn,
			"checked_in_at":      result.Attendance.CheckedInAt,
		})
	})
}
