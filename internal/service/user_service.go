package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/repository"
)

// ProfilePatch carries profile edits; nil fields are left unchanged.
type ProfilePatch struct {
	DisplayName *string
	HomeCity    *string
	Handicap    *float64
}

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*model.User, error)
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error
}

type userService struct {
	users repository.UserRepository
	links repository.FriendLinkRepository
}

func NewUserService(users repository.UserRepository, links repository.FriendLinkRepository) UserService {
	return &userService{users: users, links: links}
}

func (s *userService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*model.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		user.DisplayName = *patch.DisplayName
	}
	if patch.HomeCity != nil {
		user.HomeCity = *patch.HomeCity
	}
	if patch.Handicap != nil {
		user.Handicap = patch.Handicap
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if userID == friendID {
		return fmt.Errorf("cannot befriend yourself")
	}
	if _, err := s.GetUser(ctx, friendID); err != nil {
		return err
	}

	exists, err := s.links.Exists(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("check friendship: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.links.Create(ctx, &model.FriendLink{UserA: userID, UserB: friendID}); err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}
	return nil
}

func (s *userService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if err := s.links.Delete(ctx, userID, friendID); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

var _ UserService = (*userService)(nil)
