package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/fork-archive-hub/drive-server/internal/dbtest"
	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/fork-archive-hub/drive-server/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLinker struct {
	url string
	err error
}

func (l stubLinker) DownloadURL(_ context.Context, bucket, fileID string) (string, error) {
	if l.err != nil {
		return "", l.err
	}

	return l.url + bucket + "/" + fileID, nil
}

type sharesFixture struct {
	repos *repository.Repos
	svc   *ShareService

	root, child, grandchild, outside *model.Folder
	file                             *model.File
}

func newSharesFixture(t *testing.T, links DownloadLinker) *sharesFixture {
	t.Helper()
	ctx := context.Background()

	v, err := security.NewVault(testVaultKey)
	require.NoError(t, err)

	repos := repository.New(dbtest.New(t))
	f := &sharesFixture{repos: repos, svc: NewShareService(repos, v, links)}

	folder := func(name string, parent *model.Folder, owner string) *model.Folder {
		m := &model.Folder{Name: name, Bucket: "bkt", UserID: owner}
		if parent != nil {
			m.ParentID = &parent.ID
		}
		require.NoError(t, repos.Folders.Create(ctx, m))
		return m
	}

	f.root = folder("root", nil, "owner")
	f.child = folder("child", f.root, "owner")
	f.grandchild = folder("grandchild", f.child, "owner")
	f.outside = folder("outside", nil, "owner")

	f.file = &model.File{FileID: "net-file-1", FolderID: f.child.ID, Name: "a.txt", Bucket: "bkt", UserID: "owner"}
	require.NoError(t, repos.Files.Create(ctx, f.file))
	require.NoError(t, repos.Files.Create(ctx, &model.File{
		FileID: "net-file-2", FolderID: f.child.ID, Name: "b.txt", Bucket: "bkt", UserID: "owner",
	}))

	return f
}

func TestFileShareRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, stubLinker{url: "https://net/"})

	token, err := f.svc.IssueFileToken(ctx, "owner", "net-file-1", ShareOptions{EncryptionKey: "k1", ItemToken: "ft"})
	require.NoError(t, err)
	assert.Len(t, token, security.TokenSize*2)

	got, err := f.svc.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "net-file-1", got.File.FileID)
	assert.Equal(t, "k1", got.EncryptionKey)
	assert.Equal(t, "ft", got.ItemToken)
	assert.Equal(t, "https://net/bkt/net-file-1", got.DownloadURL)
	assert.Nil(t, got.Views)

	rotated, err := f.svc.IssueFileToken(ctx, "owner", "net-file-1", ShareOptions{EncryptionKey: "k2"})
	require.NoError(t, err)
	assert.NotEqual(t, token, rotated)

	_, err = f.svc.Redeem(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrShareNotFound)

	got, err = f.svc.Redeem(ctx, rotated)
	require.NoError(t, err)
	assert.Equal(t, "k2", got.EncryptionKey)

	shares, err := f.svc.List(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, shares, 1)
}

func TestIssueFileTokenRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, nil)

	_, err := f.svc.IssueFileToken(ctx, "intruder", "net-file-1", ShareOptions{})
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)

	_, err = f.svc.IssueFileToken(ctx, "owner", "net-file-1", ShareOptions{Views: intPtr(0)})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.IssueFolderToken(ctx, "intruder", f.root.ID, ShareOptions{})
	assert.ErrorIs(t, err, apperr.ErrFolderNotFound)
}

func TestRedeemExhaustsViews(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, nil)

	token, err := f.svc.IssueFileToken(ctx, "owner", "net-file-1", ShareOptions{Views: intPtr(2)})
	require.NoError(t, err)

	first, err := f.svc.Redeem(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, first.Views)
	assert.Equal(t, 1, *first.Views)
	assert.Empty(t, first.DownloadURL)

	second, err := f.svc.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 0, *second.Views)

	_, err = f.svc.Redeem(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrShareNotFound)
}

func TestRedeemNetworkFailureKeepsView(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, stubLinker{err: errors.New("network down")})

	token, err := f.svc.IssueFileToken(ctx, "owner", "net-file-1", ShareOptions{Views: intPtr(1)})
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrNetworkFailed)

	share, err := f.repos.Shares.FindByToken(ctx, token, false)
	require.NoError(t, err)
	assert.Equal(t, 1, *share.Views)
}

func TestFolderShareListing(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, nil)

	ft, err := f.svc.IssueFolderToken(ctx, "owner", f.root.ID, ShareOptions{Mnemonic: "mn", ItemToken: "bt"})
	require.NoError(t, err)
	require.Len(t, ft.Code, security.CodeSize*2)

	info, err := f.svc.RedeemFolder(ctx, ft.Token)
	require.NoError(t, err)
	assert.Equal(t, f.root.ID, info.Folder.ID)
	assert.Equal(t, "mn", info.Mnemonic)

	// File tokens and folder tokens live in separate namespaces
	_, err = f.svc.Redeem(ctx, ft.Token)
	assert.ErrorIs(t, err, apperr.ErrShareNotFound)

	folders, err := f.svc.ListSharedFolders(ctx, DirectoryQuery{Token: ft.Token, Code: ft.Code})
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, f.child.ID, folders[0].ID)

	files, err := f.svc.ListSharedFiles(ctx, DirectoryQuery{Token: ft.Token, Code: ft.Code, DirectoryID: f.child.ID})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	page, err := f.svc.ListSharedFiles(ctx, DirectoryQuery{
		Token: ft.Token, Code: ft.Code, DirectoryID: f.child.ID, Offset: 1, Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "net-file-2", page[0].FileID)

	deep, err := f.svc.ListSharedFolders(ctx, DirectoryQuery{Token: ft.Token, Code: ft.Code, DirectoryID: f.grandchild.ID})
	require.NoError(t, err)
	assert.Empty(t, deep)
}

func TestUsedUpFolderShareIsClosed(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, nil)

	ft, err := f.svc.IssueFolderToken(ctx, "owner", f.root.ID, ShareOptions{Views: intPtr(1)})
	require.NoError(t, err)

	_, err = f.svc.RedeemFolder(ctx, ft.Token)
	require.NoError(t, err)

	_, err = f.svc.RedeemFolder(ctx, ft.Token)
	assert.ErrorIs(t, err, apperr.ErrShareNotFound)

	_, err = f.svc.ListSharedFolders(ctx, DirectoryQuery{Token: ft.Token, Code: ft.Code})
	assert.ErrorIs(t, err, apperr.ErrShareNotFound)

	_, err = f.svc.ListSharedFiles(ctx, DirectoryQuery{Token: ft.Token, Code: ft.Code, DirectoryID: f.child.ID})
	assert.ErrorIs(t, err, apperr.ErrShareNotFound)

	shares, err := f.svc.List(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestFolderShareListingRejects(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, nil)

	ft, err := f.svc.IssueFolderToken(ctx, "owner", f.child.ID, ShareOptions{})
	require.NoError(t, err)

	tests := []struct {
		name string
		q    DirectoryQuery
		want error
	}{
		{"wrong code", DirectoryQuery{Token: ft.Token, Code: "nope"}, apperr.ErrShareNotFound},
		{"missing code", DirectoryQuery{Token: ft.Token}, apperr.ErrShareNotFound},
		{"unknown token", DirectoryQuery{Token: "nope", Code: ft.Code}, apperr.ErrShareNotFound},
		{"parent of shared root", DirectoryQuery{Token: ft.Token, Code: ft.Code, DirectoryID: f.root.ID}, apperr.ErrShareNotFound},
		{"unrelated folder", DirectoryQuery{Token: ft.Token, Code: ft.Code, DirectoryID: f.outside.ID}, apperr.ErrShareNotFound},
		{"missing folder", DirectoryQuery{Token: ft.Token, Code: ft.Code, DirectoryID: 9999}, apperr.ErrShareNotFound},
		{"negative offset", DirectoryQuery{Token: ft.Token, Code: ft.Code, Offset: -1}, apperr.ErrInvalidArgument},
		{"limit too large", DirectoryQuery{Token: ft.Token, Code: ft.Code, Limit: MaxPageSize + 1}, apperr.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ListSharedFiles(ctx, tt.q)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteShare(t *testing.T) {
	ctx := context.Background()
	f := newSharesFixture(t, nil)

	token, err := f.svc.IssueFileToken(ctx, "owner", "net-file-1", ShareOptions{})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, "intruder", token), apperr.ErrShareNotFound)
	require.NoError(t, f.svc.Delete(ctx, "owner", token))

	_, err = f.svc.Redeem(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrShareNotFound)
}

func intPtr(n int) *int { return &n }
