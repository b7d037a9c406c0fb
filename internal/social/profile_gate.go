package social

import (
	"context"

	"github.com/google/uuid"

	"fairway/roundhub/internal/repository"
)

// ProfileGate guards join, request, and invite-accept actions: users
// without a minimum profile are routed to the profile-completion flow
// instead of into a round.
type ProfileGate interface {
	HasMinimumProfile(ctx context.Context, userID uuid.UUID) (bool, error)
}

type profileGate struct {
	users repository.UserRepository
}

func NewProfileGate(users repository.UserRepository) ProfileGate {
	return &profileGate{users: users}
}

func (g *profileGate) HasMinimumProfile(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.ProfileComplete(), nil
}
