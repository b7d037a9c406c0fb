package service

import (
	"sync"

	"github.com/google/uuid"
)

// RoundLocker serializes all mutations per round. Every coordinator
// operation that touches a round's membership or capacity runs under
// that round's mutex; operations on different rounds never contend.
// Round and membership services must share one locker so a capacity
// edit cannot interleave with a seat grant.
type RoundLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewRoundLocker() *RoundLocker {
	return &RoundLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire locks the mutex for the given round and returns its unlock
// function. Locks are never evicted; the map grows with the number of
// distinct rounds seen by this process, a few dozen bytes each.
func (l *RoundLocker) Acquire(roundID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[roundID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roundID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
