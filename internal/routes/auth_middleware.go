// Session middleware.
// Verifies the auth session token from the Authorization header or the
// session cookie and loads the caller's profile into the context.
package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cxc-checkin/internal/jwt"
	"cxc-checkin/internal/profiles"
	"cxc-checkin/internal/storage"
)

const (
	claimsKey  = "claims"
	userIDKey  = "userID"
	profileKey = "profile"
)

var ErrUserNotFound = errors.New("user not found in context")

// sessionToken returns the bearer token, falling back to the cookie.
func sessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func GetUser(c *gin.Context) (string, error) {
	uid := c.GetString(userIDKey)
	if uid == "" {
		return "", ErrUserNotFound
	}
	return uid, nil
}

// GetProfile returns the caller's profile, or nil when the authenticated
// user has no profile row.
func GetProfile(c *gin.Context) *storage.Profile {
	if v, ok := c.Get(profileKey); ok {
		if profile, ok := v.(*storage.Profile); ok {
			return profile
		}
	}
	return nil
}

func getClaims(c *gin.Context) *jwt.SessionClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*jwt.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

// RequireSession rejects requests without a valid, unrevoked session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := services(c)
		ctx := c.Request.Context()

		token := sessionToken(c, s.Auth.Cookie)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.Sessions.Decode(token)
		if err != nil {
			slog.Debug("RequireSession: invalid session token", "error", err)
			AbortWithError(c, err)
			return
		}

		if claims.ID != "" && s.Revocations != nil {
			revoked, err := s.Revocations.IsRevoked(ctx, claims.ID)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			if revoked {
				AbortWithError(c, ErrTokenRevoked)
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Set(userIDKey, claims.Subject)

		profile, err := s.Profiles.Get(ctx, claims.Subject)
		switch {
		case err == nil:
			c.Set(profileKey, profile)
		case errors.Is(err, profiles.ErrProfileNotFound):
			slog.Debug("RequireSession: no profile for user", "userID", claims.Subject)
		default:
			AbortWithError(c, err)
			return
		}

		c.Next()
	}
}

func AuthRoutes(r *gin.RouterGroup) {
	r.GET("/me", func(c *gin.Context) {
		profile := GetProfile(c)
		if profile == nil {
			AbortWithError(c, ErrProfileRequired)
			return
		}
		c.JSON(http.StatusOK, gin.H{"profile": profile})
	})

	r.POST("/logout", func(c *gin.Context) {
		s := services(c)
		claims := getClaims(c)

		if claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
			if err := s.Revocations.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				AbortWithError(c, err)
				return
			}
		}

		// Clear session cookie by setting it to expire in the past
		secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
		c.SetCookie(s.Auth.Cookie, "", -1, "/", "", secure, true)

		slog.Info("User signed out", "userID", c.GetString(userIDKey))
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "Signed out",
			"revoked_at": time.Now().UTC().Format(time.RFC3339),
		})
	})
}
