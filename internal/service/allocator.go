package service

import (
	"context"
	"fmt"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/repository"
)

// SeatAllocator decides whether one more seat can be granted in a round.
// Callers must hold the round's lock (RoundLocker.Acquire) so that the
// count-and-compare below is atomic with the membership write that
// follows it: with N free seats and more than N concurrent grants,
// exactly N pass. Seats are never reserved ahead of the commit — the
// recount inside MembershipRepository.SaveAndRecount is the consumption,
// so a failed write leaks nothing.
type SeatAllocator struct {
	members repository.MembershipRepository
}

func NewSeatAllocator(members repository.MembershipRepository) *SeatAllocator {
	return &SeatAllocator{members: members}
}

// Reserve returns nil when a seat is free and ErrRoundFull otherwise.
// The accepted count is re-read from the store, not trusted from the
// round snapshot: the snapshot may predate the lock acquisition.
func (a *SeatAllocator) Reserve(ctx context.Context, round *model.Round) error {
	n, err := a.members.CountAccepted(ctx, round.ID)
	if err != nil {
		return fmt.Errorf("count accepted members: %w", err)
	}
	// The host holds a seat without a membership row.
	if int(n)+1 >= round.MaxPlayers {
		return ErrRoundFull
	}
	return nil
}
