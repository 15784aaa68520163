package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"stockroom/internal/auth"
	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/repository"
)

// UserService exposes account management.
type UserService interface {
	AddUser(ctx context.Context, username, password string, role model.Role) (bool, error)
	GetUser(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, id uint, role model.Role) (bool, error)
	DeleteUser(ctx context.Context, id uint) (bool, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// AddUser stores a new account and reports false when the username is taken.
func (s *userService) AddUser(ctx context.Context, username, password string, role model.Role) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, fmt.Errorf("%w: username is required", errors.ErrValidation)
	}
	if password == "" {
		return false, fmt.Errorf("%w: password is required", errors.ErrValidation)
	}
	if !role.Valid() {
		return false, fmt.Errorf("%w: unknown role %q", errors.ErrValidation, role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	created, err := s.repo.Create(ctx, &model.User{Username: username, PasswordHash: hash, Role: role})
	if err != nil {
		return false, err
	}
	if created {
		log.Info().Str("username", username).Str("role", string(role)).Msg("user created")
	}
	return created, nil
}

func (s *userService) GetUser(ctx context.Context, username string) (*model.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// ListUsers returns admins first, then staff, then users, each by username.
func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) UpdateUserRole(ctx context.Context, id uint, role model.Role) (bool, error) {
	if !role.Valid() {
		return false, fmt.Errorf("%w: unknown role %q", errors.ErrValidation, role)
	}
	updated, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return false, err
	}
	if updated {
		log.Info().Uint("user_id", id).Str("role", string(role)).Msg("user role changed")
	}
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		log.Info().Uint("user_id", id).Msg("user deleted")
	}
	return deleted, nil
}
