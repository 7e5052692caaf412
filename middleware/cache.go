package middleware

import "github.com/gin-gonic/gin"

// NoStoreMiddleware marks responses as uncacheable. Presence snapshots and
// the access mode document go stale within seconds, so intermediaries must
// not hold onto them.
func NoStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
