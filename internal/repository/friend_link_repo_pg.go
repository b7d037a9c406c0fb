package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fairway/roundhub/internal/model"
)

type pgFriendLinkRepository struct {
	db *gorm.DB
}

func NewPGFriendLinkRepository(db *gorm.DB) FriendLinkRepository {
	return &pgFriendLinkRepository{db: db}
}

func (r *pgFriendLinkRepository) Create(ctx context.Context, link *model.FriendLink) error {
	link.UserA, link.UserB = model.OrderFriendPair(link.UserA, link.UserB)
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *pgFriendLinkRepository) Delete(ctx context.Context, a, b uuid.UUID) error {
	a, b = model.OrderFriendPair(a, b)
	return r.db.WithContext(ctx).
		Delete(&model.FriendLink{}, "user_a = ? AND user_b = ?", a, b).Error
}

func (r *pgFriendLinkRepository) Exists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	a, b = model.OrderFriendPair(a, b)
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.FriendLink{}).
		Where("user_a = ? AND user_b = ?", a, b).
		Count(&n).Error
	return n > 0, err
}
