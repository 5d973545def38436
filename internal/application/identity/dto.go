package identity

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput contains the login request data
type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult contains the login response data
type LoginResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserInfo  `json:"user"`
}

// RefreshTokenInput contains the refresh token request data
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the refresh token response data
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	UserID uuid.UUID
	// TokenID is the jti of the access token used for the request
	TokenID      string
	TokenTTL     time.Duration
	RefreshToken string
}

// ChangePasswordInput contains password change request data
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// UserInfo is the public view of a CRM user
type UserInfo struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	FullName       string     `json:"full_name"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	Locked         bool       `json:"locked"`
	FailedAttempts int        `json:"failed_attempts"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP    string     `json:"last_login_ip,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToUserInfo converts a domain user to UserInfo
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName(),
		Role:           string(u.Role),
		Status:         string(u.Status),
		Locked:         u.IsLocked(time.Now()),
		FailedAttempts: u.FailedAttempts,
		LastLoginAt:    u.LastLoginAt,
		LastLoginIP:    u.LastLoginIP,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UserListFilter filters the admin user list
type UserListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Role     string
	Status   string
}

// CreateUserInput contains the data for a new user
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	Password  string
}

// UpdateUserInput carries optional changes; nil fields are left as they are
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
}
