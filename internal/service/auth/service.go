package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
	"github.com/rsmedika/consent-api/pkg/auth"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
	"github.com/rsmedika/consent-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

// invalidCredentials is deliberately identical for unknown usernames, wrong
// passwords, and deactivated accounts; the login path is not an account
// oracle.
var invalidCredentials = apperrors.Unauthorized("invalid username or password")

type Service struct {
	users    repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	attempts *cache.Cache
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		users:    users,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		attempts: cache.New(lockoutDuration, 2*lockoutDuration),
	}
}

// Login verifies credentials and issues a session token carrying the user's
// permission snapshot. Five consecutive failures lock the username out for
// fifteen minutes.
func (s *Service) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	if s.lockedOut(username) {
		return nil, apperrors.Unauthorized("too many failed attempts, try again later")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(username)
			return nil, invalidCredentials
		}
		return nil, apperrors.Store(fmt.Errorf("login lookup failed: %w", err))
	}

	if !user.IsActive {
		s.recordFailure(username)
		return nil, invalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.recordFailure(username)
		return nil, invalidCredentials
	}

	s.attempts.Delete(username)

	token, err := s.jwtSvc.GenerateToken(user)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to generate session token: %w", err))
	}

	log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("login successful")

	return &model.LoginResponse{
		Token: token,
		User: model.SessionUser{
			Username:    user.Username,
			Role:        user.Role,
			Permissions: user.Permissions,
		},
	}, nil
}

func (s *Service) lockedOut(username string) bool {
	if v, ok := s.attempts.Get(username); ok {
		return v.(int) >= maxLoginAttempts
	}
	return false
}

func (s *Service) recordFailure(username string) {
	if _, err := s.attempts.IncrementInt(username, 1); err != nil {
		s.attempts.Set(username, 1, cache.DefaultExpiration)
	}
}
