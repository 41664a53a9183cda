package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/fork-archive-hub/drive-server/internal/dbtest"
	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func intPtr(n int) *int { return &n }

func TestTeamMembersEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Members.Create(ctx, &model.TeamMember{
		TeamID: 1, Email: "A@x.com", BridgePassword: "p", BridgeMnemonic: "m",
	}))

	err := r.Members.Create(ctx, &model.TeamMember{
		TeamID: 2, Email: "a@x.com", BridgePassword: "p", BridgeMnemonic: "m",
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	m, err := r.Members.FindByEmail(ctx, "a@X.com")
	require.NoError(t, err)
	assert.Equal(t, uint(1), m.TeamID)

	n, err := r.Members.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Invitations.Create(ctx, &model.TeamInvitation{
		TeamID: 1, Email: "b@x.com", Token: "tok", BridgePassword: "p", Mnemonic: "m",
	}))
	inv, err := r.Invitations.FindByToken(ctx, "tok")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = r.Transaction(ctx, func(tx *Repos) error {
		if err := tx.Members.Create(ctx, &model.TeamMember{
			TeamID: 1, Email: "b@x.com", BridgePassword: "p", BridgeMnemonic: "m",
		}); err != nil {
			return err
		}
		if err := tx.Invitations.Delete(ctx, inv.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = r.Members.FindByEmail(ctx, "b@x.com")
	assert.True(t, IsNotFound(err))

	_, err = r.Invitations.FindByToken(ctx, "tok")
	assert.NoError(t, err)
}

func TestSharesUpsertRotatesToken(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{
		Token: "old", UserID: "u1", ItemID: "f1", Views: intPtr(2),
	}))
	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{
		Token: "new", UserID: "u1", ItemID: "f1",
	}))

	_, err := r.Shares.FindByToken(ctx, "old", false)
	assert.True(t, IsNotFound(err))

	s, err := r.Shares.FindByToken(ctx, "new", false)
	require.NoError(t, err)
	assert.Nil(t, s.Views)

	shares, err := r.Shares.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, shares, 1)

	// Same item shared as a folder is a separate grant
	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{
		Token: "folder", UserID: "u1", ItemID: "f1", IsFolder: true,
	}))
	_, err = r.Shares.FindByToken(ctx, "folder", false)
	assert.True(t, IsNotFound(err))
}

func TestSharesConsumeView(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{Token: "lim", UserID: "u", ItemID: "a", Views: intPtr(2)}))
	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{Token: "unl", UserID: "u", ItemID: "b"}))

	lim, err := r.Shares.FindByToken(ctx, "lim", false)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ok, err := r.Shares.ConsumeView(ctx, lim.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := r.Shares.ConsumeView(ctx, lim.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	unl, err := r.Shares.FindByToken(ctx, "unl", false)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ok, err := r.Shares.ConsumeView(ctx, unl.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestSharesFindByUserSkipsUsedUp(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{Token: "one", UserID: "u", ItemID: "a", Views: intPtr(1)}))
	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{Token: "unl", UserID: "u", ItemID: "b"}))

	one, err := r.Shares.FindByToken(ctx, "one", false)
	require.NoError(t, err)

	ok, err := r.Shares.ConsumeView(ctx, one.ID)
	require.NoError(t, err)
	require.True(t, ok)

	shares, err := r.Shares.FindByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "unl", shares[0].Token)
}

func TestSharesDeleteOnlyOwner(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Shares.Upsert(ctx, &model.Share{Token: "t", UserID: "owner", ItemID: "a"}))

	ok, err := r.Shares.Delete(ctx, "intruder", "t")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Shares.Delete(ctx, "owner", "t")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeysExists(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	ok, err := r.Keys.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Keys.Create(ctx, &model.KeyServer{UserID: "u1", PublicKey: "pub", PrivateKey: "priv"}))

	ok, err = r.Keys.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsersDeactivatedAreHidden(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Users.Create(ctx, &model.User{ID: "u1", Email: "Gone@X.com", Password: "p", Deactivated: true}))

	_, err := r.Users.FindByEmail(ctx, "gone@x.com")
	assert.True(t, IsNotFound(err))
}

func TestTeamsFindForUpdateLocksRow(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=drive dbname=drive"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var team model.Team
		return lockRow(tx).Where("id = ?", 7).First(&team)
	})

	assert.Contains(t, sql, "FOR UPDATE")
	assert.Contains(t, sql, `"teams"`)
}

func TestTeamsFindForUpdate(t *testing.T) {
	ctx := context.Background()
	r := New(dbtest.New(t))

	require.NoError(t, r.Teams.Create(ctx, &model.Team{Admin: "a@x.com", Name: "t", BridgeUser: "b", TotalMembers: 3}))

	err := r.Transaction(ctx, func(tx *Repos) error {
		team, err := tx.Teams.FindForUpdate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, team.TotalMembers)
		return nil
	})
	require.NoError(t, err)

	_, err = r.Teams.FindForUpdate(ctx, 99)
	assert.True(t, IsNotFound(err))
}
