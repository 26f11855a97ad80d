package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/google/uuid"
)

type AuthService struct {
	repo domain.UserRepository
}

func NewAuthService(repo domain.UserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Timezone string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	id := uuid.NewString()
	user, err := domain.NewUser(id, input.Email, input.Timezone)
	if err != nil {
		return nil, err
	}

	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("auth service: failed to create user: %w", err)
	}

	return user, nil
}

// Login checks the credentials. Unknown emails and wrong passwords both
// return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth service: failed to fetch user: %w", err)
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// UserLocation resolves the timezone a user's calendar days are counted in.
func (s *AuthService) UserLocation(ctx context.Context, userID string) (*time.Location, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Location(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
