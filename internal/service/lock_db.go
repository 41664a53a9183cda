package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fork-archive-hub/drive-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBLockStore keeps leases in the folder_locks table. The primary key on
// folder_id guarantees a single row per folder.
type DBLockStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewDBLockStore(db *gorm.DB) *DBLockStore {
	return &DBLockStore{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *DBLockStore) Acquire(ctx context.Context, folderID, lockID, userID string, ttl time.Duration) (bool, error) {
	now := s.Now()
	acquired := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// An expired lease belongs to nobody
		if err := tx.
			Where("folder_id = ? AND expires_at <= ?", folderID, now).
			Delete(&model.FolderLock{}).
			Error; err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.FolderLock{
			FolderID:  folderID,
			LockID:    lockID,
			UserID:    userID,
			ExpiresAt: now.Add(ttl),
		})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 1 {
			acquired = true
			return nil
		}

		res = tx.Model(&model.FolderLock{}).
			Where("folder_id = ? AND lock_id = ?", folderID, lockID).
			Update("expires_at", now.Add(ttl))
		if res.Error != nil {
			return res.Error
		}

		acquired = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to acquire folder lock, %w", err)
	}

	return acquired, nil
}

func (s *DBLockStore) Refresh(ctx context.Context, folderID, lockID string, ttl time.Duration) (bool, error) {
	now := s.Now()

	res := s.DB.WithContext(ctx).
		Model(&model.FolderLock{}).
		Where("folder_id = ? AND lock_id = ? AND expires_at > ?", folderID, lockID, now).
		Update("expires_at", now.Add(ttl))
	if res.Error != nil {
		return false, fmt.Errorf("failed to refresh folder lock, %w", res.Error)
	}

	return res.RowsAffected == 1, nil
}

func (s *DBLockStore) Release(ctx context.Context, folderID, lockID string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("folder_id = ? AND lock_id = ?", folderID, lockID).
		Delete(&model.FolderLock{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to release folder lock, %w", res.Error)
	}

	return res.RowsAffected == 1, nil
}
