package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/database"
	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/redis"
	"github.com/nkoval/parley/internal/snowflake"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

type AuthService struct {
	users     database.UserRepository
	tokens    *auth.TokenService
	redis     *redis.Client
	snowflake *snowflake.Generator
}

func NewAuthService(users database.UserRepository, tokens *auth.TokenService, rc *redis.Client, gen *snowflake.Generator) *AuthService {
	return &AuthService{users: users, tokens: tokens, redis: rc, snowflake: gen}
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a user account. Usernames are lowercase, 3-32
// characters of letters, digits, and underscores.
func (s *AuthService) Register(ctx context.Context, username, displayName, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, BadRequest("INVALID_USERNAME", "username must be 3-32 lowercase letters, digits, or underscores")
	}
	if len(password) < 8 {
		return nil, BadRequest("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if existing != nil {
		return nil, Conflict("USERNAME_TAKEN", "that username is already in use")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           s.snowflake.Generate().Int64(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a token pair. The refresh token
// is stored in redis keyed to the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, nil, Unauthorized("INVALID_CREDENTIALS", "incorrect username or password")
	}
	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, nil, Unauthorized("INVALID_CREDENTIALS", "incorrect username or password")
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the old token is revoked and a fresh
// pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.redis.GetRefreshTokenUserID(ctx, refreshToken)
	if errors.Is(err, redis.ErrTokenNotFound) {
		return nil, Unauthorized("INVALID_TOKEN", "refresh token is invalid or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up refresh token: %w", err)
	}
	if err := s.redis.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("revoking refresh token: %w", err)
	}
	return s.issueTokens(ctx, userID)
}

// Logout revokes the refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.redis.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

// GetUser loads a user's public profile.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", userID, err)
	}
	if user == nil {
		return nil, NotFound("UNKNOWN_USER", "user not found")
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID int64) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}
	if err := s.redis.StoreRefreshToken(ctx, refresh, userID, s.tokens.RefreshExpiry()); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
