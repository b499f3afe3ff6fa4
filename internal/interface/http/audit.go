package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/go-user-identity/internal/domain/repository"
	"github.com/oksasatya/go-user-identity/internal/interface/middleware"
)

const (
	AuditRegister     = "register"
	AuditLoginSuccess = "login_success"
	AuditLoginFailure = "login_failure"
	AuditUpdate       = "update"
	AuditRemove       = "remove"
	AuditRollback     = "rollback"
)

// Auditor writes audit rows for request-scoped actions. A nil Repo disables it.
type Auditor struct {
	Repo   repo.AuditRepository
	Logger *logrus.Logger
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString(middleware.CtxRealIP); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func (a *Auditor) Record(c *gin.Context, userID, email, action string, metadata map[string]any) {
	if a == nil || a.Repo == nil {
		return
	}
	err := a.Repo.Insert(c.Request.Context(), repo.AuditEntry{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	})
	if err != nil && a.Logger != nil {
		a.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}
