package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fairway/roundhub/internal/model"
)

type pgRoundRepository struct {
	db *gorm.DB
}

func NewPGRoundRepository(db *gorm.DB) RoundRepository {
	return &pgRoundRepository{db: db}
}

func (r *pgRoundRepository) Create(ctx context.Context, round *model.Round) error {
	return r.db.WithContext(ctx).Create(round).Error
}

func (r *pgRoundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	var round model.Round
	if err := r.db.WithContext(ctx).First(&round, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *pgRoundRepository) Update(ctx context.Context, round *model.Round) error {
	return r.db.WithContext(ctx).Save(round).Error
}

func (r *pgRoundRepository) ListOpen(ctx context.Context, limit int) ([]model.Round, error) {
	var rounds []model.Round
	q := r.db.WithContext(ctx).
		Where("status = ?", model.RoundStatusOpen).
		Order("tee_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

func (r *pgRoundRepository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]model.Round, error) {
	var rounds []model.Round
	if err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("tee_time DESC").
		Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

func (r *pgRoundRepository) ListJoinedBy(ctx context.Context, userID uuid.UUID) ([]model.Round, error) {
	var rounds []model.Round
	if err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.round_id = rounds.id").
		Where("memberships.user_id = ? AND memberships.status = ?", userID, model.MemberStatusAccepted).
		Order("rounds.tee_time DESC").
		Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}
