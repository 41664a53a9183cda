package service

import (
	"time"

	"github.com/fork-archive-hub/drive-server/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LockCleanup periodically deletes folder leases that expired without being
// released. Only needed by the database lock store; redis expires keys itself.
func LockCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Lock cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			if n, err := purgeExpiredLocks(db, time.Now().UTC()); err != nil {
				zap.L().Error("Failed to cleanup expired folder locks", zap.Error(err))
			} else if n > 0 {
				zap.L().Debug("Cleaned up expired folder locks", zap.Int64("count", n))
			}
		}
	}()
}

func purgeExpiredLocks(db *gorm.DB, now time.Time) (int64, error) {
	res := db.
		Where("expires_at <= ?", now).
		Delete(&model.FolderLock{})

	return res.RowsAffected, res.Error
}
