package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-identity/internal/application"
	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/interface/middleware"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
	"github.com/oksasatya/go-user-identity/pkg/response"
	"github.com/oksasatya/go-user-identity/pkg/validation"
)

// SessionService is the part of the application service used by AuthHandler.
type SessionService interface {
	Login(ctx context.Context, in userapp.LoginInput) (*userapp.LoginResponse, userapp.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (userapp.TokenPair, string, error)
	Logout(ctx context.Context, userID string)
}

type AuthHandler struct {
	Svc     SessionService
	Audit   *Auditor
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc SessionService, audit *Auditor, logger *logrus.Logger, cookies *helpers.Manager) *AuthHandler {
	return &AuthHandler{Svc: svc, Audit: audit, Logger: logger, Cookies: cookies}
}

type loginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password"`
	Type       string `json:"type" binding:"omitempty,registertype"`
	ExternalID string `json:"externalId"`
}

// Login POST /api/auth
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, pair, err := h.Svc.Login(c.Request.Context(), userapp.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		Type:       entity.RegisterType(req.Type),
		ExternalID: req.ExternalID,
	})
	if err != nil {
		h.Audit.Record(c, "", req.Email, AuditLoginFailure, map[string]any{"type": req.Type})
		response.DomainError(c, err)
		return
	}
	h.Audit.Record(c, res.UserID, res.Email, AuditLoginSuccess, map[string]any{"type": res.RegisterType})
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, res, "login successful", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Refresh POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.DomainError(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Logout POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), c.GetString(middleware.CtxUserID))
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}
