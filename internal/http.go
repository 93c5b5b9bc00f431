package app

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"cxc-checkin/internal/config"
	"cxc-checkin/internal/routes"
)

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "no-referrer")

	// Attendance data must not be cached by intermediaries
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

// Middleware to check if the IP is allowed.
func IPAccessControl(allowedCIDRs []string) gin.HandlerFunc {
	var parsedCIDRs []*net.IPNet

	// Allow local networks in debug mode
	if os.Getenv("GIN_MODE") != "release" {
		allowedCIDRs = append(allowedCIDRs, "127.0.0.1/8", "::1/128")
	}

	for _, cidr := range allowedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("Invalid CIDR", "cidr", cidr)
			continue
		}
		slog.Debug("Allowed CIDR", "cidr", cidr)
		parsedCIDRs = append(parsedCIDRs, network)
	}

	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP == nil {
			slog.Warn("Invalid client IP", "ip", c.ClientIP())
			routes.AbortWithError(c, routes.ErrForbidden)
			return
		}

		for _, cidr := range parsedCIDRs {
			if cidr.Contains(clientIP) {
				c.Next()
				return
			}
		}
		slog.Warn("IP not allowed", "ip", clientIP)
		routes.AbortWithError(c, routes.ErrForbidden)
	}
}

// splitNetworks parses the comma separated allowed_networks setting.
func splitNetworks(value string) []string {
	var cidrs []string
	for cidr := range strings.SplitSeq(value, ",") {
		if cidr := strings.TrimSpace(cidr); cidr != "" {
			cidrs = append(cidrs, cidr)
		}
	}
	return cidrs
}

// HTTPServer builds the gin engine serving the check-in API.
func HTTPServer(cfg *config.Config, services *routes.Services) *gin.Engine {
	r := gin.Default()

	r.Use(routes.ErrorHandler())
	if cfg.AllowedNetworks != "" {
		slog.Debug("Enabling IP access control", "allowed_networks", cfg.AllowedNetworks)
		r.Use(IPAccessControl(splitNetworks(cfg.AllowedNetworks)))
	}
	r.Use(securityHeaders, routes.Inject(services))

	r.NoRoute(func(c *gin.Context) {
		routes.AbortWithHTTPError(c, http.StatusNotFound, nil, "Not found", "NOT_FOUND")
	})

	routes.RegisterRoutes(r)
	return r
}
