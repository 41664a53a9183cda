package repository

import (
	"context"
	"strings"

	"github.com/fork-archive-hub/drive-server/internal/model"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

// FindByEmail looks a user up by case folded email. Deactivated users are
// treated as missing.
func (r *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("email = ? AND deactivated = ?", strings.ToLower(email), false).
		First(&u).
		Error
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *Users) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ? AND deactivated = ?", id, false).
		First(&u).
		Error
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *Users) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(u.Email)
	return r.db.WithContext(ctx).Create(u).Error
}

// FindOrCreate returns the user with u.Email, creating it from u when absent.
// The second result reports whether a row was inserted.
func (r *Users) FindOrCreate(ctx context.Context, u *model.User) (*model.User, bool, error) {
	u.Email = strings.ToLower(u.Email)
	if u.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return nil, false, err
		}
		u.ID = id
	}

	var out model.User

	res := r.db.WithContext(ctx).
		Where(model.User{Email: u.Email}).
		Attrs(*u).
		FirstOrCreate(&out)
	if res.Error != nil {
		return nil, false, res.Error
	}

	return &out, res.RowsAffected > 0, nil
}

// SetBucket records the Network bucket of a user once it exists
func (r *Users) SetBucket(ctx context.Context, id, bucket string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("bucket", bucket).
		Error
}

type Keys struct {
	db *gorm.DB
}

// Exists reports whether the user has uploaded a key pair
func (r *Keys) Exists(ctx context.Context, userID string) (bool, error) {
	var found bool

	err := r.db.WithContext(ctx).
		Model(&model.KeyServer{}).
		Select("count(*) > 0").
		Where("user_id = ?", userID).
		Find(&found).
		Error

	return found, err
}

func (r *Keys) Create(ctx context.Context, k *model.KeyServer) error {
	return r.db.WithContext(ctx).Create(k).Error
}

func (r *Keys) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.KeyServer{}).
		Error
}
