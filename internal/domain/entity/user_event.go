package entity

import "time"

// UserEventType names a user lifecycle transition published to the event queue.
type UserEventType string

const (
	EventUserRegistered UserEventType = "user.registered"
	EventUserUpdated    UserEventType = "user.updated"
	EventUserRemoved    UserEventType = "user.removed"
	EventUserRolledBack UserEventType = "user.rolled_back"
)

// UserEvent is the message body consumed by the event worker.
type UserEvent struct {
	Type         UserEventType `json:"type"`
	UserID       string        `json:"user_id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	RegisterType RegisterType  `json:"register_type"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

func NewUserEvent(t UserEventType, u *User, at time.Time) UserEvent {
	return UserEvent{
		Type:         t,
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		RegisterType: u.RegisterType,
		OccurredAt:   at.UTC(),
	}
}
