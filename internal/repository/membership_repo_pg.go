package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fairway/roundhub/internal/model"
)

type pgMembershipRepository struct {
	db *gorm.DB
}

func NewPGMembershipRepository(db *gorm.DB) MembershipRepository {
	return &pgMembershipRepository{db: db}
}

func (r *pgMembershipRepository) GetByRoundAndUser(ctx context.Context, roundID, userID uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	if err := r.db.WithContext(ctx).
		Where("round_id = ? AND user_id = ?", roundID, userID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *pgMembershipRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.Membership, error) {
	var members []model.Membership
	if err := r.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Preload("User").
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *pgMembershipRepository) ListByRoundAndStatus(ctx context.Context, roundID uuid.UUID, status model.MemberStatus) ([]model.Membership, error) {
	var members []model.Membership
	if err := r.db.WithContext(ctx).
		Where("round_id = ? AND status = ?", roundID, status).
		Preload("User").
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *pgMembershipRepository) CountAccepted(ctx context.Context, roundID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("round_id = ? AND status = ?", roundID, model.MemberStatusAccepted).
		Count(&n).Error
	return n, err
}

func (r *pgMembershipRepository) SaveAndRecount(ctx context.Context, m *model.Membership) (int, error) {
	var accepted int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		n, err := recount(tx, m.RoundID)
		if err != nil {
			return err
		}
		accepted = n
		return nil
	})
	return accepted, err
}

func (r *pgMembershipRepository) DeleteAndRecount(ctx context.Context, m *model.Membership) (int, error) {
	var accepted int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Membership{}, "id = ?", m.ID).Error; err != nil {
			return err
		}
		n, err := recount(tx, m.RoundID)
		if err != nil {
			return err
		}
		accepted = n
		return nil
	})
	return accepted, err
}

// recount derives accepted_count from the membership rows plus the host,
// who holds a seat without a row. This is the only place the counter is
// written.
func recount(tx *gorm.DB, roundID uuid.UUID) (int, error) {
	var n int64
	if err := tx.Model(&model.Membership{}).
		Where("round_id = ? AND status = ?", roundID, model.MemberStatusAccepted).
		Count(&n).Error; err != nil {
		return 0, err
	}
	accepted := int(n) + 1
	if err := tx.Model(&model.Round{}).
		Where("id = ?", roundID).
		UpdateColumn("accepted_count", accepted).Error; err != nil {
		return 0, err
	}
	return accepted, nil
}
