package auth

import (
	"testing"
	"time"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "crm-test",
	})
}

func newTestSubject() Subject {
	return Subject{UserID: uuid.New(), Email: "agent@crm.local", Role: "agent"}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret"})
	assert.Equal(t, []byte("test-secret"), svc.refreshSecret)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair(newTestSubject())

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	_, err = svc.GenerateTokenPair(Subject{})
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestValidateAccessToken(t *testing.T) {
	svc := newTestJWTService()
	sub := newTestSubject()
	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sub.UserID.String(), claims.UserID)
	assert.Equal(t, "agent", claims.Role)
	assert.Equal(t, "agent@crm.local", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	id, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, sub.UserID, id)
	assert.Greater(t, claims.RemainingTTL(), 14*time.Minute)
}

func TestValidateRefreshToken_CarriesNoRole(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Empty(t, claims.Role)
	assert.Empty(t, claims.Email)
}

func TestValidate_Errors(t *testing.T) {
	sameSecret := NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "crm-test",
	})
	pair, err := sameSecret.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := sameSecret.ValidateAccessToken("invalid-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token used as access token", func(t *testing.T) {
		_, err := sameSecret.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("access token used as refresh token", func(t *testing.T) {
		_, err := sameSecret.ValidateRefreshToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("different secret", func(t *testing.T) {
		_, err := newTestJWTService().ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err, "same secret and issuer validate")

		foreign := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-of-32-characters",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "crm-test",
		})
		_, err = foreign.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)

		forged, err := foreign.GenerateTokenPair(newTestSubject())
		require.NoError(t, err)
		_, err = sameSecret.ValidateAccessToken(forged.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
		_, err := other.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		svc := newTestJWTService()
		svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
		old, err := svc.GenerateTokenPair(newTestSubject())
		require.NoError(t, err)
		svc.now = time.Now
		_, err = svc.ValidateAccessToken(old.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := sameSecret.claims(newTestSubject(), TokenTypeAccess, time.Now(), time.Minute)
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = sameSecret.ValidateAccessToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
