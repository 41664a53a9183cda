// Package model defines database models
package model

import "time"

// User is an application identity. Password, Salt and Mnemonic only ever hold
// vault ciphertext or password hashes.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name"`
	BridgeUser   string    `gorm:"index" json:"bridgeUser"`
	Password     string    `gorm:"not null" json:"-"`
	Salt         string    `json:"-"`
	Mnemonic     string    `json:"-"`
	RootFolderID *uint     `json:"root_folder_id"`
	Bucket       string    `json:"bucket"`
	Deactivated  bool      `gorm:"default:false" json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// KeyServer holds a user's key pair. Only its presence matters here.
type KeyServer struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	UserID        string `gorm:"uniqueIndex;not null"`
	PublicKey     string `gorm:"not null"`
	PrivateKey    string `gorm:"not null"`
	RevocationKey string
}
