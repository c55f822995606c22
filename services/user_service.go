package services

import (
	"context"
	"errors"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/common/logger"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService defines the business logic for user profiles.
type UserService interface {
	// Create registers the identity on first sign-in. created is false when
	// the user already existed.
	Create(ctx context.Context, subject string, req models.CreateUserRequest) (user *models.User, created bool, err error)
	Get(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error)
}

type userService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserService(users repository.UserRepository, logger *zap.Logger) UserService {
	return &userService{users: users, logger: logger}
}

func (s *userService) Create(ctx context.Context, subject string, req models.CreateUserRequest) (*models.User, bool, error) {
	if req.Auth0ID != subject {
		return nil, false, apperrors.Validation("Invalid request", "auth0Id does not match the authenticated identity")
	}

	existing, err := s.users.FindByAuth0ID(ctx, req.Auth0ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, apperrors.Internal("Error creating user", err)
	}

	user := &models.User{
		ID:      uuid.NewString(),
		Auth0ID: req.Auth0ID,
		Email:   req.Email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent first sign-in.
		if errors.Is(err, repository.ErrDuplicate) {
			existing, findErr := s.users.FindByAuth0ID(ctx, req.Auth0ID)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, apperrors.Internal("Error creating user", err)
	}

	logger.For(ctx, s.logger).Info("User created", zap.String("user_id", user.ID))
	return user, true, nil
}

func (s *userService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal("Error fetching user", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal("Error updating user", err)
	}
	return user, nil
}
