package models

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
)

// UserModel is the persistence model for a CRM user.
type UserModel struct {
	AggregateModel
	Email             string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	FirstName         string          `gorm:"type:varchar(100);not null"`
	LastName          string          `gorm:"type:varchar(100)"`
	Role              identity.Role   `gorm:"type:varchar(20);not null;index"`
	Status            identity.Status `gorm:"type:varchar(20);not null"`
	PasswordHash      string          `gorm:"type:varchar(100);not null"`
	FailedAttempts    int             `gorm:"not null"`
	LockedUntil       *time.Time
	LastLoginAt       *time.Time
	LastLoginIP       string `gorm:"type:varchar(64)"`
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "crm_users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Role:              m.Role,
		Status:            m.Status,
		PasswordHash:      m.PasswordHash,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
		LastLoginAt:       m.LastLoginAt,
		LastLoginIP:       m.LastLoginIP,
		PasswordChangedAt: m.PasswordChangedAt,
	}
}

// FromDomain populates the persistence model from a domain User.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.Role = u.Role
	m.Status = u.Status
	m.PasswordHash = u.PasswordHash
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.PasswordChangedAt = u.PasswordChangedAt
}

// UserModelFromDomain creates a persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
