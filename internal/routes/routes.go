package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"cxc-checkin/internal/access"
	"cxc-checkin/internal/config"
	"cxc-checkin/internal/events"
	"cxc-checkin/internal/jwt"
	"cxc-checkin/internal/profiles"
	"cxc-checkin/internal/revocation"
	"cxc-checkin/internal/storage"
)

const servicesKey = "Services"

// Services are the collaborators handlers pull from the request context.
type Services struct {
	Events      *events.Service
	CheckIn     *events.CheckInService
	Profiles    *profiles.Service
	RBAC        *access.RBAC
	Sessions    *jwt.Codec
	Revocations revocation.Store
	Auth        config.AuthConfig

	// Storage is probed by the health check when set.
	Storage storage.Provider
}

// Inject makes s available to every handler behind it.
func Inject(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, s)
		c.Next()
	}
}

func services(c *gin.Context) *Services {
	return c.MustGet(servicesKey).(*Services)
}

// RegisterRoutes mounts the API on r. The caller installs Inject first.
func RegisterRoutes(r *gin.Engine) {
	Health(r.Group(""))

	api := r.Group("/api")

	auth := api.Group("/auth", RequireSession())
	AuthRoutes(auth)

	admin := api.Group("/admin", RequireSession())
	EventRoutes(admin.Group("/events"))
	NfcRoutes(admin.Group("/nfc"))
	CheckInRoutes(admin.Group("/checkin"))

	slog.Debug("Routes registered", "count", len(r.Routes()))
}
