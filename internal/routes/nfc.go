package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cxc-checkin/internal/nfc"
)

const maxQRSize = 1024

func NfcRoutes(r *gin.RouterGroup) {
	// Without nfc_id the caller's own badge id is returned, generated on
	// first use. With nfc_id the badge is resolved to its owner.
	r.GET("", RequirePermission("nfc", "read"), func(c *gin.Context) {
		s := services(c)
		ctx := c.Request.Context()

		if nfcID := c.Query("nfc_id"); nfcID != "" {
			profile, err := s.Profiles.Lookup(ctx, nfcID)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"profile": gin.H{
				"id":         profile.ID,
				"email":      profile.Email,
				"nfc_id":     profile.NfcID,
				"first_name": profile.FirstName,
				"last_name":  profile.LastName,
				"role":       profile.Role,
			}})
			return
		}

		userID, err := GetUser(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		token, err := s.Profiles.GetOrGenerateNfcID(ctx, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"nfc_id": token})
	})

	// GET /api/admin/nfc/qr?size=256 renders the caller's badge id as PNG.
	r.GET("/qr", RequirePermission("nfc", "read"), func(c *gin.Context) {
		size := 256
		if v := c.Query("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxQRSize {
				AbortWithError(c, ErrInvalidParameter)
				return
			}
			size = n
		}

		userID, err := GetUser(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		token, err := services(c).Profiles.GetOrGenerateNfcID(c.Request.Context(), userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		png, err := nfc.QRCode(token, size)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})
}
