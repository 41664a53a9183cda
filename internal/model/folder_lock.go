package model

import "time"

// FolderLock is a lease row used by the database lock store
type FolderLock struct {
	FolderID  string    `gorm:"primaryKey"`
	LockID    string    `gorm:"not null"`
	UserID    string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
