package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/pkg/response"
)

const (
	UserParam = "userId"
	CtxUser   = "user"
)

// UserLoader returns an active user or a NotFoundError.
type UserLoader interface {
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
}

// WithUserParam resolves the :userId path parameter and stores the user in
// the context under CtxUser.
func WithUserParam(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := loader.GetProfile(c.Request.Context(), c.Param(UserParam))
		if err != nil {
			response.DomainError(c, err)
			c.Abort()
			return
		}
		c.Set(CtxUser, u)
		c.Next()
	}
}

// SameUser only lets the session owner act on :userId.
func SameUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetString(CtxUserID); uid == "" || uid != c.Param(UserParam) {
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}

// UserFrom returns the user stored by WithUserParam.
func UserFrom(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}
