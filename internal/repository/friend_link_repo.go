package repository

import (
	"context"

	"github.com/google/uuid"

	"fairway/roundhub/internal/model"
)

type FriendLinkRepository interface {
	Create(ctx context.Context, link *model.FriendLink) error
	Delete(ctx context.Context, a, b uuid.UUID) error
	Exists(ctx context.Context, a, b uuid.UUID) (bool, error)
}
