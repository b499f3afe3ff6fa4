package middleware

import (
	"github.com/gin-gonic/gin"
)

const CtxRealIP = "real_ip"

// RealIP stores c.ClientIP() in the context under CtxRealIP. Forwarding
// headers only count when the engine's TrustedPlatform or trusted proxies
// allow them, so a client cannot pick its own address.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIP, c.ClientIP())
		c.Next()
	}
}
