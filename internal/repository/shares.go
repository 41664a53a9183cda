package repository

import (
	"context"

	"github.com/fork-archive-hub/drive-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Shares struct {
	db *gorm.DB
}

// Upsert stores s, replacing token and key material of an existing share for
// the same (user, item, kind). The previous token stops resolving.
func (r *Shares) Upsert(ctx context.Context, s *model.Share) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "item_id"}, {Name: "is_folder"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"token", "bucket", "item_token", "mnemonic", "encryption_key", "views", "code_hash",
			}),
		}).
		Create(s).
		Error
}

func (r *Shares) FindByToken(ctx context.Context, token string, isFolder bool) (*model.Share, error) {
	var s model.Share

	err := r.db.WithContext(ctx).
		Where("token = ? AND is_folder = ?", token, isFolder).
		First(&s).
		Error
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// ConsumeView takes one view from a limited share. It reports false when the
// share is gone or has no views left. Unlimited shares always succeed.
func (r *Shares) ConsumeView(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Share{}).
		Where("id = ? AND (views IS NULL OR views > 0)", id).
		Update("views", gorm.Expr("CASE WHEN views IS NULL THEN NULL ELSE views - 1 END"))
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// FindByUser returns the live shares of userID. Shares without views left are
// skipped.
func (r *Shares) FindByUser(ctx context.Context, userID string) ([]model.Share, error) {
	var shares []model.Share

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("views IS NULL OR views > 0").
		Order("created_at DESC").
		Find(&shares).
		Error

	return shares, err
}

// Delete revokes a share owned by userID and reports whether it existed
func (r *Shares) Delete(ctx context.Context, userID, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&model.Share{})

	return res.RowsAffected > 0, res.Error
}
