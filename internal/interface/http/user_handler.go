package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-identity/internal/application"
	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/interface/middleware"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
	"github.com/oksasatya/go-user-identity/pkg/response"
	"github.com/oksasatya/go-user-identity/pkg/validation"
)

const maxAvatarBytes = 5 << 20

// UserService is the part of the application service used by UserHandler.
type UserService interface {
	Register(ctx context.Context, in userapp.RegisterInput) (*entity.User, error)
	Update(ctx context.Context, userID string, in userapp.UpdateInput) (*entity.User, error)
	Remove(ctx context.Context, userID string) (*entity.User, error)
	Rollback(ctx context.Context, userID string) error
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
	UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
}

type UserHandler struct {
	Svc     UserService
	Audit   *Auditor
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc UserService, audit *Auditor, logger *logrus.Logger, cookies *helpers.Manager) *UserHandler {
	return &UserHandler{Svc: svc, Audit: audit, Logger: logger, Cookies: cookies}
}

type registerRequest struct {
	Name            string `json:"name" binding:"required,username"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"omitempty,pwd"`
	ConfirmPassword string `json:"confirmPassword" binding:"eqfield=Password"`
	Register        string `json:"register" binding:"omitempty,register"`
	BirthDate       string `json:"birthDate" binding:"omitempty,date"`
	RegisterType    string `json:"registerType" binding:"omitempty,registertype"`
	ExternalID      string `json:"externalId"`
}

type updateRequest struct {
	Name            string `json:"name" binding:"omitempty,username"`
	Email           string `json:"email" binding:"omitempty,email"`
	Password        string `json:"password" binding:"omitempty,pwd"`
	ConfirmPassword string `json:"confirmPassword" binding:"eqfield=Password"`
	Register        string `json:"register" binding:"omitempty,register"`
	BirthDate       string `json:"birthDate" binding:"omitempty,date"`
	ExternalID      string `json:"externalId"`
}

type userView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Register     string    `json:"register,omitempty"`
	RegisterType string    `json:"registerType"`
	BirthDate    string    `json:"birthDate,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toView(u *entity.User) userView {
	v := userView{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Register:     u.Register,
		RegisterType: string(u.RegisterType),
		AvatarURL:    u.AvatarURL,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.BirthDate != nil {
		v.BirthDate = u.BirthDate.Format(validation.DateLayout)
	}
	return v
}

// parseDate expects a value already checked by the date tag.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// Register POST /api/users
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Register:     req.Register,
		BirthDate:    parseDate(req.BirthDate),
		RegisterType: entity.RegisterType(req.RegisterType),
		ExternalID:   req.ExternalID,
	})
	if err != nil {
		response.DomainError(c, err)
		return
	}
	h.Audit.Record(c, u.ID, u.Email, AuditRegister, map[string]any{"register_type": u.RegisterType})
	response.Success(c, http.StatusCreated, toView(u), "user created", nil)
}

// Get GET /api/users/:userId
func (h *UserHandler) Get(c *gin.Context) {
	u := middleware.UserFrom(c)
	response.Success(c, http.StatusOK, toView(u), "user", nil)
}

// Update PATCH /api/users/:userId
func (h *UserHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	uid := c.Param(middleware.UserParam)
	u, err := h.Svc.Update(c.Request.Context(), uid, userapp.UpdateInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Register:   req.Register,
		BirthDate:  parseDate(req.BirthDate),
		ExternalID: req.ExternalID,
	})
	if err != nil {
		response.DomainError(c, err)
		return
	}
	h.Audit.Record(c, u.ID, u.Email, AuditUpdate, map[string]any{"password_changed": req.Password != ""})
	response.Success(c, http.StatusOK, toView(u), "user updated", nil)
}

// Remove DELETE /api/users/:userId
func (h *UserHandler) Remove(c *gin.Context) {
	u, err := h.Svc.Remove(c.Request.Context(), c.Param(middleware.UserParam))
	if err != nil {
		response.DomainError(c, err)
		return
	}
	h.Audit.Record(c, u.ID, u.Email, AuditRemove, nil)
	if h.Cookies != nil {
		h.Cookies.Clear(c)
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true}, "user removed", nil)
}

// Rollback POST /api/users/:userId/rollback
func (h *UserHandler) Rollback(c *gin.Context) {
	uid := c.Param(middleware.UserParam)
	if err := h.Svc.Rollback(c.Request.Context(), uid); err != nil {
		response.DomainError(c, err)
		return
	}
	h.Audit.Record(c, uid, "", AuditRollback, nil)
	response.Success(c, http.StatusOK, gin.H{"rolledBack": true}, "user rolled back", nil)
}

// Search GET /api/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("user search failed")
		}
		response.Error[any](c, http.StatusBadGateway, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "users", map[string]any{"count": len(hits)})
}

// UploadAvatar PUT /api/users/:userId/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"avatar": "is required"})
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "avatar too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), c.Param(middleware.UserParam), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, helpers.ErrStorageNotConfigured) {
			response.Error[any](c, http.StatusServiceUnavailable, "avatar storage unavailable", nil)
			return
		}
		response.DomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatarUrl": url}, "avatar updated", nil)
}
