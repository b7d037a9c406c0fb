package repository

import (
	"context"

	"github.com/google/uuid"

	"fairway/roundhub/internal/model"
)

type MembershipRepository interface {
	// GetByRoundAndUser returns gorm.ErrRecordNotFound when the user has
	// no record in the round ("none" in the transition table).
	GetByRoundAndUser(ctx context.Context, roundID, userID uuid.UUID) (*model.Membership, error)
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.Membership, error)
	ListByRoundAndStatus(ctx context.Context, roundID uuid.UUID, status model.MemberStatus) ([]model.Membership, error)
	CountAccepted(ctx context.Context, roundID uuid.UUID) (int64, error)

	// SaveAndRecount upserts the membership row and refreshes the round's
	// accepted_count in a single transaction. It returns the new accepted
	// count (host included). Either both writes land or neither does.
	SaveAndRecount(ctx context.Context, m *model.Membership) (int, error)

	// DeleteAndRecount removes the row (cancelRequest returns the pair to
	// "none") with the same transactional recount.
	DeleteAndRecount(ctx context.Context, m *model.Membership) (int, error)
}
