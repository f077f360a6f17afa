package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesOwner(t *testing.T) {
	l := NewLocalLocker(8)
	owner := uuid.New()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), owner)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestLocalLockerHonorsContext(t *testing.T) {
	l := NewLocalLocker(1)
	owner := uuid.New()

	unlock, err := l.Lock(context.Background(), owner)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, owner)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalLockerUnlockIsIdempotent(t *testing.T) {
	l := NewLocalLocker(1)
	owner := uuid.New()

	unlock, err := l.Lock(context.Background(), owner)
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = l.Lock(context.Background(), owner)
	require.NoError(t, err)
	unlock()
}
