package identity

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeUser = "User"

const (
	EventTypeUserCreated         = "UserCreated"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserLocked          = "UserLocked"
)

// UserEvent carries the identity of the user an event is about
type UserEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

func newUserEvent(eventType string, u *User) *UserEvent {
	return &UserEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Email:           u.Email,
		Role:            u.Role,
	}
}

func NewUserCreatedEvent(u *User) *UserEvent { return newUserEvent(EventTypeUserCreated, u) }

func NewUserPasswordChangedEvent(u *User) *UserEvent {
	return newUserEvent(EventTypeUserPasswordChanged, u)
}

func NewUserLockedEvent(u *User) *UserEvent { return newUserEvent(EventTypeUserLocked, u) }
