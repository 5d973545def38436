package identity

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user administration
type UserService struct {
	userRepo   identity.UserRepository
	blacklist  auth.TokenBlacklist
	jwtService *auth.JWTService
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		logger:     logger,
	}
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, filter UserListFilter) ([]UserInfo, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = min(filter.PageSize, 100)
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Role != "" {
		domainFilter.Filters["role"] = filter.Role
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	users, err := s.userRepo.FindAll(ctx, domainFilter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, err
	}
	total, err := s.userRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]UserInfo, len(users))
	for i := range users {
		items[i] = ToUserInfo(&users[i])
	}
	return items, total, nil
}

// GetByID returns one user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// Create creates an active user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	s.logger.Info("Creating new user", zap.String("email", input.Email), zap.String("role", input.Role))

	exists, err := s.userRepo.ExistsByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)), nil)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}

	user, err := identity.NewUser(input.Email, input.FirstName, input.LastName, identity.Role(input.Role), input.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save user", zap.Error(err))
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User created", zap.String("user_id", user.ID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// Update changes profile and role. The last active admin cannot be demoted.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			exists, err := s.userRepo.ExistsByEmail(ctx, email, &user.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
			}
			if err := user.SetEmail(email); err != nil {
				return nil, err
			}
		}
	}

	if input.FirstName != nil || input.LastName != nil {
		first, last := user.FirstName, user.LastName
		if input.FirstName != nil {
			first = *input.FirstName
		}
		if input.LastName != nil {
			last = *input.LastName
		}
		if err := user.SetName(first, last); err != nil {
			return nil, err
		}
	}

	roleChanged := false
	if input.Role != nil && identity.Role(*input.Role) != user.Role {
		if user.Role == identity.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return nil, err
			}
		}
		if err := user.SetRole(identity.Role(*input.Role)); err != nil {
			return nil, err
		}
		roleChanged = true
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err))
		return nil, err
	}
	if roleChanged {
		// access tokens carry the role
		s.revokeSessions(ctx, user)
	}

	info := ToUserInfo(user)
	return &info, nil
}

// ResetPassword sets a new password without the current one
func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.publish(ctx, user)
	s.revokeSessions(ctx, user)

	s.logger.Info("User password reset", zap.String("user_id", id.String()))
	return nil
}

// Enable reactivates a user and clears a lockout
func (s *UserService) Enable(ctx context.Context, id uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Enable()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// Disable blocks a user and revokes their tokens. Admins cannot disable
// themselves or the last active admin.
func (s *UserService) Disable(ctx context.Context, actorID, id uuid.UUID) (*UserInfo, error) {
	if actorID == id {
		return nil, shared.NewDomainError("INVALID_STATE", "You cannot disable your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.RoleAdmin && user.Status == identity.StatusActive {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}
	user.Disable()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.revokeSessions(ctx, user)

	s.logger.Info("User disabled", zap.String("user_id", id.String()), zap.String("by", actorID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// Delete removes a user. Owned entities become unassigned in the database.
func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return shared.NewDomainError("INVALID_STATE", "You cannot delete your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == identity.RoleAdmin && user.Status == identity.StatusActive {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete user", zap.Error(err))
		return err
	}
	s.revokeSessions(ctx, user)

	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	admins, err := s.userRepo.CountByRole(ctx, identity.RoleAdmin, identity.StatusActive)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return shared.NewDomainError("INVALID_STATE", "At least one active admin is required")
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, user *identity.User) {
	if err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.jwtService.RefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke user tokens", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	if err := shared.PublishPending(ctx, s.events, user); err != nil {
		s.logger.Error("Failed to publish user events", zap.Error(err))
	}
}
