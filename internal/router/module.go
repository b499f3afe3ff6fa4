package router

import "github.com/gin-gonic/gin"

// Module is a feature module (users, auth, debug) that registers its routes
// on the /api RouterGroup.
type Module interface {
	Register(rg *gin.RouterGroup)
}
