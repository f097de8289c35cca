package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuthConfig holds the static allow-list for admin endpoints.
// A request passes when it carries either a valid X-Admin-Token header
// or an X-Admin-ID header whose value is on the allow-list.
type AdminAuthConfig struct {
	Token string
	IDs   []string
}

// AdminAuthMiddleware guards the admin endpoints (manual refresh,
// cache invalidation) with a shared token or a per-user allow-list
func AdminAuthMiddleware(cfg AdminAuthConfig) gin.HandlerFunc {
	if cfg.Token == "" && len(cfg.IDs) == 0 {
		// Return a middleware that always returns 500 if misconfigured
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: no admin token or allow-list set",
			})
		}
	}

	tokenBytes := []byte(cfg.Token)
	allowed := make(map[string]struct{}, len(cfg.IDs))
	for _, id := range cfg.IDs {
		id = strings.TrimSpace(id)
		if id != "" {
			allowed[id] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if cfg.Token != "" {
			token := c.GetHeader("X-Admin-Token")
			// Use subtle.ConstantTimeCompare to prevent timing attacks
			if token != "" && subtle.ConstantTimeCompare([]byte(token), tokenBytes) == 1 {
				c.Next()
				return
			}
		}

		if id := c.GetHeader("X-Admin-ID"); id != "" {
			if _, ok := allowed[id]; ok {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "unauthorized",
		})
	}
}
