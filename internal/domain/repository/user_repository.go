package repository

import (
	"context"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Lookups return errs.ErrUserNotFound when nothing matches. GetByEmail,
// GetByRegister and GetByExternalID only consider active users; GetByID
// returns inactive users too so update, delete and rollback can target them.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByRegister(ctx context.Context, register string) (*entity.User, error)
	GetByExternalID(ctx context.Context, registerType entity.RegisterType, externalID string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// AuditEntry is one row of the audit trail.
type AuditEntry struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}

// AuditRepository records security-relevant user actions.
type AuditRepository interface {
	Insert(ctx context.Context, e AuditEntry) error
}
