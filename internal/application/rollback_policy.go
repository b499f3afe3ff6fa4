package application

import (
	"time"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
)

// DefaultRollbackWindow is how long after creation a registration can be undone.
const DefaultRollbackWindow = 60 * time.Second

// RollbackPolicy decides whether a fresh registration may still be hard-deleted.
// It only decides; deleting is up to the caller.
type RollbackPolicy struct {
	Window time.Duration
}

func (p RollbackPolicy) window() time.Duration {
	if p.Window <= 0 {
		return DefaultRollbackWindow
	}
	return p.Window
}

// CanRollback reports whether |now - createdAt| is within the window.
func (p RollbackPolicy) CanRollback(u *entity.User, now time.Time) bool {
	d := now.Sub(u.CreatedAt)
	if d < 0 {
		d = -d
	}
	return d <= p.window()
}

// Check returns errs.ErrUserNotFound for a missing user and
// errs.ErrRollbackExpired once the window has passed.
func (p RollbackPolicy) Check(u *entity.User, now time.Time) error {
	if u == nil {
		return errs.ErrUserNotFound
	}
	if !p.CanRollback(u, now) {
		return errs.ErrRollbackExpired
	}
	return nil
}
