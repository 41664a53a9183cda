package service

import (
	"context"
	"strings"
	"time"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"go.uber.org/zap"
)

// DefaultLockTTL is how long a folder lease lives without a refresh
const DefaultLockTTL = 30 * time.Second

// LockStore keeps folder leases. Every method must be atomic with respect to
// concurrent callers on the same folder.
type LockStore interface {
	// Acquire returns false if an unexpired lease with another lockID exists
	Acquire(ctx context.Context, folderID, lockID, userID string, ttl time.Duration) (bool, error)
	// Refresh returns false if no unexpired lease with lockID exists
	Refresh(ctx context.Context, folderID, lockID string, ttl time.Duration) (bool, error)
	// Release returns false if no lease with lockID exists
	Release(ctx context.Context, folderID, lockID string) (bool, error)
}

// LockManager serializes structural folder operations with expiring leases
type LockManager struct {
	store LockStore
	ttl   time.Duration
}

func NewLockManager(store LockStore, ttl time.Duration) *LockManager {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	return &LockManager{store: store, ttl: ttl}
}

func (m *LockManager) TTL() time.Duration { return m.ttl }

func (m *LockManager) Acquire(ctx context.Context, userID, folderID, lockID string) error {
	if err := validateLock(folderID, lockID); err != nil {
		return err
	}

	ok, err := m.store.Acquire(ctx, folderID, lockID, userID, m.ttl)
	if err != nil {
		return err
	}

	if !ok {
		return apperr.ErrLockConflict
	}

	zap.L().Debug("Folder lock acquired",
		zap.String("folder_id", folderID),
		zap.String("lock_id", lockID),
		zap.String("user_id", userID))

	return nil
}

func (m *LockManager) Refresh(ctx context.Context, userID, folderID, lockID string) error {
	if err := validateLock(folderID, lockID); err != nil {
		return err
	}

	ok, err := m.store.Refresh(ctx, folderID, lockID, m.ttl)
	if err != nil {
		return err
	}

	if !ok {
		return apperr.ErrLockConflict
	}

	return nil
}

func (m *LockManager) Release(ctx context.Context, userID, folderID, lockID string) error {
	if err := validateLock(folderID, lockID); err != nil {
		return err
	}

	ok, err := m.store.Release(ctx, folderID, lockID)
	if err != nil {
		return err
	}

	if !ok {
		return apperr.ErrLockNotFound
	}

	zap.L().Debug("Folder lock released",
		zap.String("folder_id", folderID),
		zap.String("lock_id", lockID),
		zap.String("user_id", userID))

	return nil
}

func validateLock(folderID, lockID string) error {
	if strings.TrimSpace(folderID) == "" {
		return apperr.InvalidArgument("folder id is missing")
	}

	if strings.TrimSpace(lockID) == "" {
		return apperr.InvalidArgument("lock id is missing")
	}

	if len(lockID) > 255 {
		return apperr.InvalidArgument("lock id is too long")
	}

	return nil
}
