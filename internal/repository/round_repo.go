package repository

import (
	"context"

	"github.com/google/uuid"

	"fairway/roundhub/internal/model"
)

type RoundRepository interface {
	Create(ctx context.Context, round *model.Round) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error)
	Update(ctx context.Context, round *model.Round) error
	ListOpen(ctx context.Context, limit int) ([]model.Round, error)
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]model.Round, error)
	ListJoinedBy(ctx context.Context, userID uuid.UUID) ([]model.Round, error)
}
