package identity

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LoginRecorder counts login attempts by result
type LoginRecorder interface {
	RecordLogin(ctx context.Context, result string)
}

// Login results reported to the LoginRecorder
const (
	loginSuccess = "success"
	loginFailure = "failure"
	loginLocked  = "locked"
)

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	metrics    LoginRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service. events and metrics
// may be nil.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	metrics LoginRecorder,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (_ *LoginResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "login")
	defer func() { telemetry.EndSpan(span, err) }()

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email", zap.String("email", input.Email))
			s.record(ctx, loginFailure)
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	now := s.now()
	if err := user.CheckCanLogin(now); err != nil {
		s.logger.Warn("Login refused", zap.String("user_id", user.ID.String()), zap.Error(err))
		s.record(ctx, loginLocked)
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(now)
		if err := s.userRepo.Save(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		s.publish(ctx, user)

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", identity.MaxFailedAttempts))
			s.record(ctx, loginLocked)
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.Int("failed_attempts", user.FailedAttempts))
		s.record(ctx, loginFailure)
		return nil, errInvalidCredentials
	}

	pair, err := s.jwtService.GenerateTokenPair(subjectOf(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	user.RecordLoginSuccess(input.IP, now)
	if err := s.userRepo.Save(ctx, user); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}
	s.record(ctx, loginSuccess)
	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))

	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserInfo(user),
	}, nil
}

// RefreshToken rotates a refresh token. The old refresh token is revoked and
// the role is re-read so that role changes take effect.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "User no longer exists")
		}
		return nil, err
	}
	if err := user.CheckCanLogin(s.now()); err != nil {
		s.logger.Warn("Token refresh for inactive user", zap.String("user_id", user.ID.String()))
		return nil, err
	}

	pair, err := s.jwtService.GenerateTokenPair(subjectOf(user))
	if err != nil {
		return nil, err
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}

	return &RefreshTokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// Logout revokes the access token of the request and, when given, the
// refresh token of the same session
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenID != "" {
		if err := s.blacklist.Revoke(ctx, input.TokenID, input.TokenTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.UserID.String() {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				return err
			}
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetCurrentUser returns the caller's profile
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// ChangePassword changes the caller's password and revokes every token
// issued before the change
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user after password change", zap.Error(err))
		return err
	}
	s.publish(ctx, user)

	if err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.jwtService.RefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke tokens after password change", zap.Error(err))
	}
	s.logger.Info("User password changed", zap.String("user_id", input.UserID.String()))
	return nil
}

// ValidateAccessToken checks signature, expiry and revocation of an access token
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) checkNotRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, user *identity.User) {
	if err := shared.PublishPending(ctx, s.events, user); err != nil {
		s.logger.Error("Failed to publish user events", zap.Error(err))
	}
}

func (s *AuthService) record(ctx context.Context, result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(ctx, result)
	}
}

func subjectOf(u *identity.User) auth.Subject {
	return auth.Subject{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, auth.ErrInvalidTokenType):
		return shared.NewDomainError("TOKEN_INVALID", "Wrong token type")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	}
}
