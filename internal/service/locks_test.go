package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/fork-archive-hub/drive-server/internal/dbtest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// lockFixture builds a manager on top of a store and a way to move time past
// the lease TTL for that store
type lockFixture struct {
	name    string
	manager *LockManager
	expire  func()
}

func lockFixtures(t *testing.T) []lockFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	dbStore := NewDBLockStore(dbtest.New(t))
	dbStore.Now = clock.Now

	ttl := 30 * time.Second

	return []lockFixture{
		{
			name:    "redis",
			manager: NewLockManager(NewRedisLockStore(client), ttl),
			expire:  func() { mr.FastForward(ttl + time.Second) },
		},
		{
			name:    "database",
			manager: NewLockManager(dbStore, ttl),
			expire:  func() { clock.Advance(ttl + time.Second) },
		},
	}
}

func TestLockAcquireConflict(t *testing.T) {
	ctx := context.Background()

	for _, f := range lockFixtures(t) {
		t.Run(f.name, func(t *testing.T) {
			m := f.manager

			require.NoError(t, m.Acquire(ctx, "userA", "F1", "L1"))

			err := m.Acquire(ctx, "userB", "F1", "L2")
			assert.ErrorIs(t, err, apperr.ErrLockConflict)

			// Same lock id re-acquires
			assert.NoError(t, m.Acquire(ctx, "userA", "F1", "L1"))

			// Other folders are independent
			assert.NoError(t, m.Acquire(ctx, "userB", "F2", "L2"))
		})
	}
}

func TestLockReleaseThenAcquire(t *testing.T) {
	ctx := context.Background()

	for _, f := range lockFixtures(t) {
		t.Run(f.name, func(t *testing.T) {
			m := f.manager

			require.NoError(t, m.Acquire(ctx, "u", "F", "L"))

			assert.ErrorIs(t, m.Release(ctx, "u", "F", "other"), apperr.ErrLockNotFound)
			require.NoError(t, m.Release(ctx, "u", "F", "L"))
			assert.ErrorIs(t, m.Release(ctx, "u", "F", "L"), apperr.ErrLockNotFound)

			assert.NoError(t, m.Acquire(ctx, "someone-else", "F", "L2"))
		})
	}
}

func TestLockRefresh(t *testing.T) {
	ctx := context.Background()

	for _, f := range lockFixtures(t) {
		t.Run(f.name, func(t *testing.T) {
			m := f.manager

			assert.ErrorIs(t, m.Refresh(ctx, "u", "F", "L"), apperr.ErrLockConflict)

			require.NoError(t, m.Acquire(ctx, "u", "F", "L"))
			assert.NoError(t, m.Refresh(ctx, "u", "F", "L"))
			assert.ErrorIs(t, m.Refresh(ctx, "u", "F", "other"), apperr.ErrLockConflict)
		})
	}
}

func TestLockExpiry(t *testing.T) {
	ctx := context.Background()

	for _, f := range lockFixtures(t) {
		t.Run(f.name, func(t *testing.T) {
			m := f.manager

			require.NoError(t, m.Acquire(ctx, "crashed", "F", "L1"))
			f.expire()

			assert.ErrorIs(t, m.Refresh(ctx, "crashed", "F", "L1"), apperr.ErrLockConflict,
				"refresh of an expired lease must fail")
			assert.NoError(t, m.Acquire(ctx, "new-holder", "F", "L2"))
		})
	}
}

func TestLockConcurrentAcquire(t *testing.T) {
	ctx := context.Background()

	for _, f := range lockFixtures(t) {
		t.Run(f.name, func(t *testing.T) {
			m := f.manager

			const contenders = 16
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				wins      int
				conflicts int
			)

			for i := 0; i < contenders; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()

					err := m.Acquire(ctx, "user", "F", "lock-"+string(rune('a'+i)))

					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						wins++
					case assert.ErrorIs(t, err, apperr.ErrLockConflict):
						conflicts++
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, 1, wins)
			assert.Equal(t, contenders-1, conflicts)
		})
	}
}

func TestLockValidation(t *testing.T) {
	m := NewLockManager(NewDBLockStore(dbtest.New(t)), 0)
	assert.Equal(t, DefaultLockTTL, m.TTL())

	err := m.Acquire(context.Background(), "u", "", "L")
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindPrecondition, kind)

	assert.Error(t, m.Release(context.Background(), "u", "F", " "))
}

func TestPurgeExpiredLocks(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewDBLockStore(gdb)
	store.Now = clock.Now

	ok, err := store.Acquire(ctx, "F1", "L", "u", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = store.Acquire(ctx, "F2", "L", "u", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := purgeExpiredLocks(gdb, clock.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
