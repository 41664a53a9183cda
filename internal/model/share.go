package model

import "time"

// Share grants anonymous read access to a file or a folder subtree. A user
// has at most one share per item; issuing again rotates Token.
type Share struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token         string    `gorm:"uniqueIndex;not null" json:"token"`
	UserID        string    `gorm:"uniqueIndex:idx_share_owner_item;not null" json:"-"`
	ItemID        string    `gorm:"uniqueIndex:idx_share_owner_item;not null" json:"itemId"`
	IsFolder      bool      `gorm:"uniqueIndex:idx_share_owner_item" json:"isFolder"`
	Bucket        string    `json:"bucket"`
	ItemToken     string    `json:"-"`
	Mnemonic      string    `json:"-"`
	EncryptionKey string    `json:"-"`
	Views         *int      `json:"views,omitempty"` // Remaining views, nil means unlimited
	CodeHash      string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}
