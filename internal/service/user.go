package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"buspass/internal/domain"
	"buspass/internal/repository"
)

// ErrPhoneTaken is returned when registering with a phone number already in use.
var ErrPhoneTaken = errors.New("phone number already registered")

// UserService manages rider accounts.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a new rider. The phone number must be unique.
func (s *UserService) Register(ctx context.Context, name, phone string) (*domain.User, error) {
	if name == "" || phone == "" {
		return nil, ErrMissingUserDetails
	}

	existing, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	user := &domain.User{
		ID:    uuid.New().String(),
		Name:  name,
		Phone: phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a rider by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidUserID
	}
	return s.userRepo.GetByID(ctx, id)
}
