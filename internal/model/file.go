package model

import "time"

type Folder struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID  *uint     `gorm:"index" json:"parentId"`
	Name      string    `json:"name"`
	Bucket    string    `json:"bucket"`
	UserID    string    `gorm:"index;not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type File struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID    string    `gorm:"uniqueIndex;not null" json:"fileId"` // Object id on the Network
	FolderID  uint      `gorm:"index;not null" json:"folderId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Bucket    string    `json:"bucket"`
	UserID    string    `gorm:"index;not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
