package social

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/repository"
)

type cachedGraph struct {
	inner Graph
	store repository.StateStore
	ttl   time.Duration
}

// NewCachedGraph decorates a Graph with a StateStore cache. The friends
// gate sits on the hot path of every join against a friends-only round;
// both positive and negative answers are cached, so an unfriending can
// take up to ttl to be observed.
func NewCachedGraph(inner Graph, store repository.StateStore, ttl time.Duration) Graph {
	return &cachedGraph{inner: inner, store: store, ttl: ttl}
}

func (g *cachedGraph) IsFriend(ctx context.Context, a, b uuid.UUID) (bool, error) {
	key := friendKey(a, b)

	if val, err := g.store.Get(ctx, key); err == nil && len(val) == 1 {
		return val[0] == '1', nil
	}

	ok, err := g.inner.IsFriend(ctx, a, b)
	if err != nil {
		return false, err
	}

	val := []byte("0")
	if ok {
		val = []byte("1")
	}
	// Best effort: a cache write failure must not fail the lookup.
	_ = g.store.Set(ctx, key, val, g.ttl)

	return ok, nil
}

func friendKey(a, b uuid.UUID) string {
	a, b = model.OrderFriendPair(a, b)
	return fmt.Sprintf("social:friends:%s:%s", a, b)
}
