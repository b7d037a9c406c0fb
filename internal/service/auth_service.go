package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/repository"
	"fairway/roundhub/pkg/crypto"
	jwtpkg "fairway/roundhub/pkg/jwt"
)

// TokenSet represents a set of tokens returned after authentication.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, email, password, displayName, homeCity string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users      repository.UserRepository
	stateStore repository.StateStore
	jwtManager *jwtpkg.Manager
}

func NewAuthService(users repository.UserRepository, stateStore repository.StateStore, jwtManager *jwtpkg.Manager) AuthService {
	return &authService{
		users:      users,
		stateStore: stateStore,
		jwtManager: jwtManager,
	}
}

func (s *authService) Register(ctx context.Context, email, password, displayName, homeCity string) (*model.User, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		HomeCity:     homeCity,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenSet, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !crypto.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	// Rotate: the old refresh token is revoked before new ones are issued.
	if err := s.stateStore.Delete(ctx, refreshKey(claims.ID)); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.stateStore.Delete(ctx, refreshKey(claims.ID)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenSet, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, claims, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	// Whitelist the JTI; Refresh and Logout check it, so a rotated or
	// logged-out token cannot be replayed.
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.stateStore.Set(ctx, refreshKey(claims.ID), []byte("1"), ttl); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}

func (s *authService) validRefreshClaims(ctx context.Context, refreshToken string) (*jwtpkg.Claims, error) {
	claims, err := s.jwtManager.Validate(refreshToken)
	if err != nil || claims.TokenType != jwtpkg.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}
	live, err := s.stateStore.Exists(ctx, refreshKey(claims.ID))
	if err != nil {
		return nil, fmt.Errorf("check refresh token: %w", err)
	}
	if !live {
		return nil, ErrRefreshTokenInvalid
	}
	return claims, nil
}

func refreshKey(jti string) string { return "auth:refresh:" + jti }

var _ AuthService = (*authService)(nil)
