// Package lock serializes per-owner read-modify-write sequences.
package lock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const defaultStripes = 64

// LocalLocker is an in-process striped mutex keyed by owner.
type LocalLocker struct {
	stripes []chan struct{}
}

// NewLocalLocker creates a locker with n stripes (64 when n <= 0).
func NewLocalLocker(n int) *LocalLocker {
	if n <= 0 {
		n = defaultStripes
	}
	stripes := make([]chan struct{}, n)
	for i := range stripes {
		stripes[i] = make(chan struct{}, 1)
	}
	return &LocalLocker{stripes: stripes}
}

func (l *LocalLocker) stripe(ownerID uuid.UUID) chan struct{} {
	h := fnv.New32a()
	_, _ = h.Write(ownerID[:])
	return l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

// Lock waits for the owner's stripe or returns ctx.Err().
func (l *LocalLocker) Lock(ctx context.Context, ownerID uuid.UUID) (func(), error) {
	s := l.stripe(ownerID)
	select {
	case s <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-s }) }, nil
}
