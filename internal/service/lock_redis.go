package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The lease value is the lock id. Each script runs atomically on the server,
// which is what makes concurrent acquires resolve to a single winner.
var (
	acquireScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return 1
end
if v == ARGV[1] then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0`)

	refreshScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0`)
)

type RedisLockStore struct {
	Client *redis.Client
}

func NewRedisLockStore(client *redis.Client) *RedisLockStore {
	return &RedisLockStore{Client: client}
}

func (s *RedisLockStore) buildKey(folderID string) string {
	return fmt.Sprintf("lock:folder:%s", folderID)
}

func (s *RedisLockStore) Acquire(ctx context.Context, folderID, lockID, _ string, ttl time.Duration) (bool, error) {
	n, err := acquireScript.Run(ctx, s.Client, []string{s.buildKey(folderID)}, lockID, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to acquire folder lock, %w", err)
	}

	return n == 1, nil
}

func (s *RedisLockStore) Refresh(ctx context.Context, folderID, lockID string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, s.Client, []string{s.buildKey(folderID)}, lockID, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to refresh folder lock, %w", err)
	}

	return n == 1, nil
}

func (s *RedisLockStore) Release(ctx context.Context, folderID, lockID string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.Client, []string{s.buildKey(folderID)}, lockID).Int()
	if err != nil {
		return false, fmt.Errorf("failed to release folder lock, %w", err)
	}

	return n == 1, nil
}
