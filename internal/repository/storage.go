package repository

import (
	"context"

	"github.com/fork-archive-hub/drive-server/internal/model"
	"gorm.io/gorm"
)

type Folders struct {
	db *gorm.DB
}

func (r *Folders) FindByID(ctx context.Context, id uint) (*model.Folder, error) {
	var f model.Folder

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}

	return &f, nil
}

func (r *Folders) FindOwned(ctx context.Context, id uint, userID string) (*model.Folder, error) {
	var f model.Folder

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&f).
		Error
	if err != nil {
		return nil, err
	}

	return &f, nil
}

func (r *Folders) Children(ctx context.Context, parentID uint, offset, limit int) ([]model.Folder, error) {
	var folders []model.Folder

	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&folders).
		Error

	return folders, err
}

func (r *Folders) Create(ctx context.Context, f *model.Folder) error {
	return r.db.WithContext(ctx).Create(f).Error
}

type Files struct {
	db *gorm.DB
}

func (r *Files) FindOwned(ctx context.Context, fileID, userID string) (*model.File, error) {
	var f model.File

	err := r.db.WithContext(ctx).
		Where("file_id = ? AND user_id = ?", fileID, userID).
		First(&f).
		Error
	if err != nil {
		return nil, err
	}

	return &f, nil
}

func (r *Files) FindByFileID(ctx context.Context, fileID string) (*model.File, error) {
	var f model.File

	if err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&f).Error; err != nil {
		return nil, err
	}

	return &f, nil
}

func (r *Files) InFolder(ctx context.Context, folderID uint, offset, limit int) ([]model.File, error) {
	var files []model.File

	err := r.db.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&files).
		Error

	return files, err
}

func (r *Files) Create(ctx context.Context, f *model.File) error {
	return r.db.WithContext(ctx).Create(f).Error
}
