package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
	"github.com/rsmedika/consent-api/pkg/security"
)

type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{users: users, hasher: hasher}
}

// Create provisions a new account. The permission set is snapshotted from
// the role table at creation time; later changes to the table do not touch
// existing rows.
func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, apperrors.Validation("invalid role: choose admin, admin_poc, or exporter")
	}

	if len(req.Password) < security.MinPasswordLen {
		return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
	}

	_, err := s.users.GetByUsername(ctx, req.Username)
	if err == nil {
		return nil, apperrors.Conflict("username already taken")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Store(fmt.Errorf("username lookup failed: %w", err))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		Permissions:  model.PermissionsForRole(req.Role),
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("username already taken")
		}
		return nil, apperrors.Store(fmt.Errorf("failed to create user: %w", err))
	}

	log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")

	user.PasswordHash = ""
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < security.MinPasswordLen {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Store(fmt.Errorf("failed to hash password: %w", err))
	}

	if err := s.users.UpdatePassword(ctx, username, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Store(fmt.Errorf("failed to update password: %w", err))
	}

	log.Info().Str("username", username).Msg("password changed")
	return nil
}

// SetActive toggles an account. The actor comes from the verified session,
// never from the request body; a session cannot deactivate itself.
func (s *Service) SetActive(ctx context.Context, actor, username string, active bool) error {
	if !active && actor == username {
		return apperrors.Validation("cannot deactivate your own account")
	}

	if err := s.users.SetActive(ctx, username, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Store(fmt.Errorf("failed to set user status: %w", err))
	}

	log.Info().Str("username", username).Bool("is_active", active).Str("actor", actor).Msg("user status changed")
	return nil
}

// List returns all accounts, admin roles first, without password hashes.
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to list users: %w", err))
	}
	return users, nil
}
