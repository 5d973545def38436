package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is the permission level of a CRM user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleAgent
}

// rank orders roles so that admin > manager > agent
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleAgent:
		return 1
	}
	return 0
}

// AtLeast reports whether r grants at least the permissions of min
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

// Status is the account state of a CRM user
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Login lockout policy
const (
	MaxFailedAttempts = 5
	LockDuration      = 15 * time.Minute
)

// BcryptCost is the bcrypt work factor for new password hashes
var BcryptCost = 12

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterRegexp = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberRegexp = regexp.MustCompile(`[0-9]`)
)

// User is a CRM operator: admin, manager or sales agent
type User struct {
	shared.BaseAggregateRoot
	Email             string
	FirstName         string
	LastName          string
	Role              Role
	Status            Status
	PasswordHash      string
	FailedAttempts    int
	LockedUntil       *time.Time
	LastLoginAt       *time.Time
	LastLoginIP       string
	PasswordChangedAt *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(email, firstName, lastName string, role Role, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid role %q", role))
	}
	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Role:              role,
		Status:            StatusActive,
	}
	if err := u.SetName(firstName, lastName); err != nil {
		return nil, err
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	u.ClearDomainEvents()
	u.AddDomainEvent(NewUserCreatedEvent(u))
	return u, nil
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetName updates first and last name
func (u *User) SetName(firstName, lastName string) error {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" {
		return shared.NewDomainError("INVALID_INPUT", "First name is required")
	}
	if len(firstName) > 100 || len(lastName) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Names cannot exceed 100 characters")
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.Touch()
	return nil
}

// SetEmail changes the login email
func (u *User) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}
	u.Email = email
	u.Touch()
	return nil
}

// SetRole changes the role
func (u *User) SetRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid role %q", role))
	}
	u.Role = role
	u.Touch()
	return nil
}

// ChangePassword replaces the password after checking the current one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if oldPassword == newPassword {
		return shared.NewDomainError("INVALID_PASSWORD", "New password must differ from the current one")
	}
	return u.SetPassword(newPassword)
}

// SetPassword hashes and stores a new password (admin reset)
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	now := time.Now()
	u.PasswordChangedAt = &now
	u.Touch()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword compares a password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Enable reactivates a disabled user and clears any lock
func (u *User) Enable() {
	u.Status = StatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
}

// Disable blocks the user from logging in
func (u *User) Disable() {
	u.Status = StatusDisabled
	u.Touch()
}

// IsLocked reports whether a lockout is in force at now
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CheckCanLogin returns the reason the user cannot log in, if any
func (u *User) CheckCanLogin(now time.Time) error {
	if u.Status == StatusDisabled {
		return shared.NewDomainError("ACCOUNT_DISABLED", "Account is disabled")
	}
	if u.IsLocked(now) {
		return shared.NewDomainError("ACCOUNT_LOCKED",
			fmt.Sprintf("Account is locked until %s", u.LockedUntil.UTC().Format(time.RFC3339)))
	}
	return nil
}

// RecordLoginSuccess resets the failure counter
func (u *User) RecordLoginSuccess(ip string, at time.Time) {
	u.LastLoginAt = &at
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
}

// RecordLoginFailure counts a failed attempt and reports whether the
// account is now locked
func (u *User) RecordLoginFailure(at time.Time) bool {
	if u.LockedUntil != nil && !u.IsLocked(at) {
		// an expired lock starts a fresh window
		u.FailedAttempts = 0
		u.LockedUntil = nil
	}
	u.FailedAttempts++
	u.Touch()
	if u.FailedAttempts >= MaxFailedAttempts {
		until := at.Add(LockDuration)
		u.LockedUntil = &until
		u.AddDomainEvent(NewUserLockedEvent(u))
		return true
	}
	return false
}

// Value implements listview.Record
func (u *User) Value(field string) (any, bool) {
	switch field {
	case "id":
		return u.ID.String(), true
	case "email":
		return u.Email, true
	case "first_name":
		return u.FirstName, true
	case "last_name":
		return u.LastName, true
	case "full_name":
		return u.FullName(), true
	case "role":
		return string(u.Role), true
	case "status":
		return string(u.Status), true
	case "locked":
		return u.IsLocked(time.Now()), true
	case "last_login_at":
		return u.LastLoginAt, true
	case "created_at":
		return u.CreatedAt, true
	}
	return nil, false
}

func validateEmail(email string) error {
	if email == "" || len(email) > 200 || !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_INPUT", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetterRegexp.MatchString(password) || !hasNumberRegexp.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

// UserRepository persists CRM users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindAll supports filter keys: role, status
	FindAll(ctx context.Context, filter shared.Filter) ([]User, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindAllRecords(ctx context.Context) ([]User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)
	CountByRole(ctx context.Context, role Role, status Status) (int64, error)
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}
