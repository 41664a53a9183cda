package repository

import (
	"context"
	"strings"

	"github.com/fork-archive-hub/drive-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Teams struct {
	db *gorm.DB
}

func (r *Teams) Create(ctx context.Context, t *model.Team) error {
	t.Admin = strings.ToLower(t.Admin)
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Teams) FindByID(ctx context.Context, id uint) (*model.Team, error) {
	var t model.Team

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}

	return &t, nil
}

// FindForUpdate reads a team and holds its row lock until the enclosing
// transaction ends. sqlite has no row locks and drops the clause.
func (r *Teams) FindForUpdate(ctx context.Context, id uint) (*model.Team, error) {
	var t model.Team

	if err := lockRow(r.db.WithContext(ctx)).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}

	return &t, nil
}

func lockRow(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *Teams) FindByAdmin(ctx context.Context, admin string) (*model.Team, error) {
	var t model.Team

	err := r.db.WithContext(ctx).
		Where("admin = ?", strings.ToLower(admin)).
		First(&t).
		Error
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *Teams) Exists(ctx context.Context, id uint) (bool, error) {
	var found bool

	err := r.db.WithContext(ctx).
		Model(&model.Team{}).
		Select("count(*) > 0").
		Where("id = ?", id).
		Find(&found).
		Error

	return found, err
}

// Update writes the given columns of a single team
func (r *Teams) Update(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.Team{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}

type TeamMembers struct {
	db *gorm.DB
}

func (r *TeamMembers) FindByEmail(ctx context.Context, email string) (*model.TeamMember, error) {
	var m model.TeamMember

	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&m).
		Error
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *TeamMembers) FindByTeam(ctx context.Context, teamID uint) ([]model.TeamMember, error) {
	var members []model.TeamMember

	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("id").
		Find(&members).
		Error

	return members, err
}

func (r *TeamMembers) Count(ctx context.Context, teamID uint) (int64, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Model(&model.TeamMember{}).
		Where("team_id = ?", teamID).
		Count(&n).
		Error

	return n, err
}

func (r *TeamMembers) Create(ctx context.Context, m *model.TeamMember) error {
	m.Email = strings.ToLower(m.Email)
	return r.db.WithContext(ctx).Create(m).Error
}

// Delete removes the membership of email in teamID and reports whether a row
// was removed
func (r *TeamMembers) Delete(ctx context.Context, teamID uint, email string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("team_id = ? AND email = ?", teamID, strings.ToLower(email)).
		Delete(&model.TeamMember{})

	return res.RowsAffected > 0, res.Error
}

type TeamInvitations struct {
	db *gorm.DB
}

func (r *TeamInvitations) FindByToken(ctx context.Context, token string) (*model.TeamInvitation, error) {
	var inv model.TeamInvitation

	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}

	return &inv, nil
}

func (r *TeamInvitations) FindByTeamAndEmail(ctx context.Context, teamID uint, email string) (*model.TeamInvitation, error) {
	var inv model.TeamInvitation

	err := r.db.WithContext(ctx).
		Where("team_id = ? AND email = ?", teamID, strings.ToLower(email)).
		First(&inv).
		Error
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

func (r *TeamInvitations) FindByID(ctx context.Context, id uint) (*model.TeamInvitation, error) {
	var inv model.TeamInvitation

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}

	return &inv, nil
}

func (r *TeamInvitations) FindByTeam(ctx context.Context, teamID uint) ([]model.TeamInvitation, error) {
	var invs []model.TeamInvitation

	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("id").
		Find(&invs).
		Error

	return invs, err
}

func (r *TeamInvitations) Count(ctx context.Context, teamID uint) (int64, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Model(&model.TeamInvitation{}).
		Where("team_id = ?", teamID).
		Count(&n).
		Error

	return n, err
}

func (r *TeamInvitations) Create(ctx context.Context, inv *model.TeamInvitation) error {
	inv.Email = strings.ToLower(inv.Email)
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *TeamInvitations) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.TeamInvitation{}).
		Error
}
