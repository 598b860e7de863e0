package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/store"
)

// AuthService handles registration and login. Passwords are argon2id
// hashed; sessions are stateless PASETO access tokens.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(s *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  s,
		tokens: tokens,
		logger: logger,
	}
}

// RegisterParams describes a new account.
type RegisterParams struct {
	Email       string
	Username    string
	DisplayName string
	Password    string
}

// AuthResult is a user plus a fresh access token.
type AuthResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

const minPasswordLength = 8

// Register creates a new account and returns it with an access token.
// Email and username are unique modulo case.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(params.Password) < minPasswordLength {
		return nil, domainerrors.Validationf("password must be at least %d characters", minPasswordLength)
	}
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, domainerrors.Validation("username is required")
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if displayName == "" {
		displayName = username
	}

	user := &domain.User{
		ID:           userID,
		Email:        strings.TrimSpace(params.Email),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		FollowingIDs: []string{},
		CreatedAt:    time.Now(),
	}

	if err := s.store.Users.Create(ctx, userID, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email or username already taken")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", userID, "username", username)
	return result, nil
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password produce the same error, so login
// failures never confirm whether an account exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByIndex(ctx, "email", email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	result, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return result, nil
}

// Me returns the authenticated user's own record.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.Users.Get(ctx, userID)
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.AccessTokenDuration()),
	}, nil
}
