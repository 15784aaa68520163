package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"stockroom/internal/auth"
	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/repository"
)

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Register creates a plain user account with a hashed password.
func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", errors.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("%w: username %q is taken", errors.ErrConflict, username)
	}
	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error) {
	user, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return "", "", nil, errors.ErrInvalidCredentials
		}
		return "", "", nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return "", "", nil, errors.ErrInvalidCredentials
	}

	if auth.IsLegacyHash(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session := auth.RefreshSession{UserID: user.ID, Username: user.Username}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, session, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// upgradeHash replaces a legacy digest with bcrypt after a successful login.
func (s *authService) upgradeHash(ctx context.Context, user *model.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Warn().Err(err).Str("username", user.Username).Msg("password rehash failed")
		return
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		log.Warn().Err(err).Str("username", user.Username).Msg("password rehash failed")
		return
	}
	user.PasswordHash = hash
	log.Info().Str("username", user.Username).Msg("legacy password hash upgraded")
}

// RefreshToken validates a refresh token and returns a new access token
// carrying the user's current role.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", errors.ErrInvalidRefreshToken
	}

	session, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", errors.ErrInvalidRefreshToken
	}
	if session.UserID != claims.UserID || session.Username != claims.Username {
		return "", errors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		// the account was removed after the token was issued
		return "", errors.ErrInvalidRefreshToken
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return errors.ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}
