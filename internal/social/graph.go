package social

import (
	"context"

	"github.com/google/uuid"

	"fairway/roundhub/internal/repository"
)

// Graph answers friendship queries for the friends-only visibility gate.
type Graph interface {
	IsFriend(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type dbGraph struct {
	links repository.FriendLinkRepository
}

func NewGraph(links repository.FriendLinkRepository) Graph {
	return &dbGraph{links: links}
}

func (g *dbGraph) IsFriend(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if a == b {
		return true, nil
	}
	return g.links.Exists(ctx, a, b)
}
