package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-identity/internal/container"
	handlers "github.com/oksasatya/go-user-identity/internal/interface/http"
	"github.com/oksasatya/go-user-identity/internal/interface/middleware"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
)

// UserModule wires user HTTP handlers into routes under /api.
// Public: POST /users, POST /users/:userId/rollback
// Protected: GET /users/search, GET /users/:userId
// Owner only: PATCH /users/:userId, DELETE /users/:userId, PUT /users/:userId/avatar
type UserModule struct {
	Handler *handlers.UserHandler
	Loader  middleware.UserLoader
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, loader middleware.UserLoader, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Loader: loader, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Public with rate limiting
	registerLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	rollbackLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/users", registerLimiter, m.Handler.Register)
	rg.POST("/users/:userId/rollback", rollbackLimiter, m.Handler.Rollback)

	// Protected
	auth := rg.Group("/users")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/search", m.Handler.Search)
		auth.GET("/:userId", middleware.WithUserParam(m.Loader), m.Handler.Get)

		owner := auth.Group("/:userId", middleware.SameUser(), middleware.WithUserParam(m.Loader))
		owner.PATCH("", m.Handler.Update)
		owner.DELETE("", m.Handler.Remove)
		owner.PUT("/avatar", m.Handler.UploadAvatar)
	}
}
