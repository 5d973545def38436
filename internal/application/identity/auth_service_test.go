package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	repo      *MockUserRepository
	blacklist *auth.InMemoryTokenBlacklist
	events    *recordingPublisher
	metrics   loginCounter
	service   *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		repo:      new(MockUserRepository),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		events:    &recordingPublisher{},
		metrics:   loginCounter{},
	}
	f.service = NewAuthService(f.repo, newTestJWTService(), f.blacklist, f.events, f.metrics, zap.NewNop())
	return f
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de.Code
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success issues tokens and records the login", func(t *testing.T) {
		f := newAuthFixture()
		user := newTestUser(t, identity.RoleAgent)
		f.repo.On("FindByEmail", mock.Anything, "agent@broker.test").Return(user, nil)
		f.repo.On("Save", mock.Anything, user).Return(nil)

		result, err := f.service.Login(ctx, LoginInput{Email: "agent@broker.test", Password: "password123", IP: "10.0.0.1"})
		require.NoError(t, err)

		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Equal(t, "10.0.0.1", user.LastLoginIP)
		assert.NotNil(t, user.LastLoginAt)
		assert.Equal(t, 1, f.metrics[loginSuccess])

		claims, err := f.service.ValidateAccessToken(ctx, result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, string(identity.RoleAgent), claims.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByEmail", mock.Anything, "nobody@broker.test").Return(nil, shared.ErrNotFound)

		_, err := f.service.Login(ctx, LoginInput{Email: "nobody@broker.test", Password: "password123"})
		assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
		assert.Equal(t, 1, f.metrics[loginFailure])
	})

	t.Run("repository failure is returned as is", func(t *testing.T) {
		f := newAuthFixture()
		boom := errors.New("connection reset")
		f.repo.On("FindByEmail", mock.Anything, "agent@broker.test").Return(nil, boom)

		_, err := f.service.Login(ctx, LoginInput{Email: "agent@broker.test", Password: "password123"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("disabled account", func(t *testing.T) {
		f := newAuthFixture()
		user := newTestUser(t, identity.RoleAgent)
		user.Disable()
		f.repo.On("FindByEmail", mock.Anything, "agent@broker.test").Return(user, nil)

		_, err := f.service.Login(ctx, LoginInput{Email: "agent@broker.test", Password: "password123"})
		assert.Equal(t, "ACCOUNT_DISABLED", domainCode(t, err))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAuthService_LoginLocksAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := newTestUser(t, identity.RoleAgent)
	f.repo.On("FindByEmail", mock.Anything, "agent@broker.test").Return(user, nil)
	f.repo.On("Save", mock.Anything, user).Return(nil)

	for i := 1; i < identity.MaxFailedAttempts; i++ {
		_, err := f.service.Login(ctx, LoginInput{Email: "agent@broker.test", Password: "wrong-pass1"})
		assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
		assert.Equal(t, i, user.FailedAttempts)
	}

	_, err := f.service.Login(ctx, LoginInput{Email: "agent@broker.test", Password: "wrong-pass1"})
	assert.Equal(t, "ACCOUNT_LOCKED", domainCode(t, err))
	assert.Contains(t, f.events.types(), identity.EventTypeUserLocked)

	// the correct password is refused while the lock holds
	_, err = f.service.Login(ctx, LoginInput{Email: "agent@broker.test", Password: "password123"})
	assert.Equal(t, "ACCOUNT_LOCKED", domainCode(t, err))
	assert.Equal(t, 2, f.metrics[loginLocked])
	assert.Equal(t, identity.MaxFailedAttempts-1, f.metrics[loginFailure])
}

func TestAuthService_RefreshRotatesTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := newTestUser(t, identity.RoleManager)
	f.repo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	f.repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.repo.On("Save", mock.Anything, user).Return(nil)

	login, err := f.service.Login(ctx, LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)

	refreshed, err := f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))

	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.AccessToken})
	assert.Equal(t, "TOKEN_INVALID", domainCode(t, err))
}

func TestAuthService_RefreshRefusesDisabledUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := newTestUser(t, identity.RoleAgent)
	f.repo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	f.repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.repo.On("Save", mock.Anything, user).Return(nil)

	login, err := f.service.Login(ctx, LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)

	user.Disable()
	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.Equal(t, "ACCOUNT_DISABLED", domainCode(t, err))
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := newTestUser(t, identity.RoleAgent)
	f.repo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	f.repo.On("Save", mock.Anything, user).Return(nil)

	login, err := f.service.Login(ctx, LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)
	claims, err := f.service.ValidateAccessToken(ctx, login.AccessToken)
	require.NoError(t, err)

	err = f.service.Logout(ctx, LogoutInput{
		UserID:       user.ID,
		TokenID:      claims.ID,
		TokenTTL:     claims.RemainingTTL(),
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)

	_, err = f.service.ValidateAccessToken(ctx, login.AccessToken)
	assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))
	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes tokens issued before the change", func(t *testing.T) {
		f := newAuthFixture()
		user := newTestUser(t, identity.RoleAgent)
		f.repo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
		f.repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.repo.On("Save", mock.Anything, user).Return(nil)

		login, err := f.service.Login(ctx, LoginInput{Email: user.Email, Password: "password123"})
		require.NoError(t, err)

		err = f.service.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: "password123", NewPassword: "newpassword456"})
		require.NoError(t, err)

		assert.True(t, user.VerifyPassword("newpassword456"))
		assert.Contains(t, f.events.types(), identity.EventTypeUserPasswordChanged)
		_, err = f.service.ValidateAccessToken(ctx, login.AccessToken)
		assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture()
		user := newTestUser(t, identity.RoleAgent)
		f.repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		err := f.service.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: "nope12345", NewPassword: "newpassword456"})
		assert.Equal(t, "INVALID_PASSWORD", domainCode(t, err))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	f := newAuthFixture()
	user := newTestUser(t, identity.RoleAdmin)
	f.repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	info, err := f.service.GetCurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", info.FullName)
	assert.Equal(t, "admin", info.Role)
}
