package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/fork-archive-hub/drive-server/pkg/security"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	// Parent hops allowed when checking that a directory sits under a shared folder
	maxFolderDepth = 256
)

// DownloadLinker hands out short lived download links for Network objects
type DownloadLinker interface {
	DownloadURL(ctx context.Context, bucket, fileID string) (string, error)
}

// ShareOptions carries the client supplied key material of a share. Views
// limits how many times the share can be redeemed; nil means unlimited.
type ShareOptions struct {
	Views         *int
	EncryptionKey string
	ItemToken     string
	Bucket        string
	Mnemonic      string
}

// FolderShareToken is returned once. Code is never stored in plain text.
type FolderShareToken struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

type SharedFile struct {
	Token         string     `json:"token"`
	File          model.File `json:"file"`
	Bucket        string     `json:"bucket"`
	ItemToken     string     `json:"fileToken"`
	EncryptionKey string     `json:"encryptionKey"`
	Mnemonic      string     `json:"mnemonic,omitempty"`
	Views         *int       `json:"views,omitempty"`
	DownloadURL   string     `json:"downloadUrl,omitempty"`
}

type SharedFolder struct {
	Token     string       `json:"token"`
	Folder    model.Folder `json:"folder"`
	Bucket    string       `json:"bucket"`
	ItemToken string       `json:"bucketToken"`
	Mnemonic  string       `json:"mnemonic,omitempty"`
	Views     *int         `json:"views,omitempty"`
}

// DirectoryQuery addresses one page of a directory inside a shared folder
type DirectoryQuery struct {
	Token       string
	Code        string
	DirectoryID uint
	Offset      int
	Limit       int
}

type ShareService struct {
	repos *repository.Repos
	vault *security.Vault
	links DownloadLinker
}

// NewShareService creates the share service. links may be nil, in which case
// redeemed files carry no download link.
func NewShareService(repos *repository.Repos, vault *security.Vault, links DownloadLinker) *ShareService {
	return &ShareService{
		repos: repos,
		vault: vault,
		links: links,
	}
}

// IssueFileToken shares a file of owner. Issuing again for the same file
// rotates the token.
func (s *ShareService) IssueFileToken(ctx context.Context, owner, fileID string, o ShareOptions) (string, error) {
	if err := validateViews(o.Views); err != nil {
		return "", err
	}

	file, err := s.repos.Files.FindOwned(ctx, fileID, owner)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", apperr.ErrFileNotFound
		}

		return "", fmt.Errorf("failed to look up file, %w", err)
	}

	share, err := s.newShare(owner, file.FileID, false, file.Bucket, o)
	if err != nil {
		return "", err
	}

	if err := s.repos.Shares.Upsert(ctx, share); err != nil {
		return "", fmt.Errorf("failed to store share, %w", err)
	}

	zap.L().Debug("File shared", zap.String("user_id", owner), zap.String("file_id", file.FileID))
	return share.Token, nil
}

// IssueFolderToken shares a folder subtree. Listing it needs both the token
// and the returned code.
func (s *ShareService) IssueFolderToken(ctx context.Context, owner string, folderID uint, o ShareOptions) (*FolderShareToken, error) {
	if err := validateViews(o.Views); err != nil {
		return nil, err
	}

	folder, err := s.repos.Folders.FindOwned(ctx, folderID, owner)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrFolderNotFound
		}

		return nil, fmt.Errorf("failed to look up folder, %w", err)
	}

	share, err := s.newShare(owner, strconv.FormatUint(uint64(folder.ID), 10), true, folder.Bucket, o)
	if err != nil {
		return nil, err
	}

	code, err := security.NewCode()
	if err != nil {
		return nil, err
	}
	share.CodeHash = s.vault.Hash(code)

	if err := s.repos.Shares.Upsert(ctx, share); err != nil {
		return nil, fmt.Errorf("failed to store share, %w", err)
	}

	zap.L().Debug("Folder shared", zap.String("user_id", owner), zap.Uint("folder_id", folder.ID))
	return &FolderShareToken{Token: share.Token, Code: code}, nil
}

func (s *ShareService) newShare(owner, itemID string, isFolder bool, bucket string, o ShareOptions) (*model.Share, error) {
	token, err := security.NewToken()
	if err != nil {
		return nil, err
	}

	if o.Bucket != "" {
		bucket = o.Bucket
	}

	key, err := s.encryptOptional(o.EncryptionKey)
	if err != nil {
		return nil, err
	}

	mnemonic, err := s.encryptOptional(o.Mnemonic)
	if err != nil {
		return nil, err
	}

	return &model.Share{
		Token:         token,
		UserID:        owner,
		ItemID:        itemID,
		IsFolder:      isFolder,
		Bucket:        bucket,
		ItemToken:     o.ItemToken,
		Mnemonic:      mnemonic,
		EncryptionKey: key,
		Views:         o.Views,
	}, nil
}

func (s *ShareService) encryptOptional(v string) (string, error) {
	if v == "" {
		return "", nil
	}

	return s.vault.Encrypt(v)
}

func (s *ShareService) decryptOptional(v string) (string, error) {
	if v == "" {
		return "", nil
	}

	return s.vault.Decrypt(v)
}

// Redeem resolves a file share and takes one view from it. Unknown, revoked
// and exhausted tokens are indistinguishable.
func (s *ShareService) Redeem(ctx context.Context, token string) (*SharedFile, error) {
	share, err := s.findShare(ctx, token, false)
	if err != nil {
		return nil, err
	}

	file, err := s.repos.Files.FindByFileID(ctx, share.ItemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrShareNotFound
		}

		return nil, fmt.Errorf("failed to look up shared file, %w", err)
	}

	key, err := s.decryptOptional(share.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt share key, %w", err)
	}

	mnemonic, err := s.decryptOptional(share.Mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt share mnemonic, %w", err)
	}

	// Resolve the link first so a Network failure does not burn a view
	var url string
	if s.links != nil {
		url, err = s.links.DownloadURL(ctx, share.Bucket, file.FileID)
		if err != nil {
			return nil, apperr.ErrNetworkFailed.Wrap(err)
		}
	}

	views, err := s.consume(ctx, share)
	if err != nil {
		return nil, err
	}

	return &SharedFile{
		Token:         share.Token,
		File:          *file,
		Bucket:        share.Bucket,
		ItemToken:     share.ItemToken,
		EncryptionKey: key,
		Mnemonic:      mnemonic,
		Views:         views,
		DownloadURL:   url,
	}, nil
}

// RedeemFolder resolves a folder share. Its contents are listed separately
// with the code.
func (s *ShareService) RedeemFolder(ctx context.Context, token string) (*SharedFolder, error) {
	share, err := s.findShare(ctx, token, true)
	if err != nil {
		return nil, err
	}

	folder, err := s.sharedRoot(ctx, share)
	if err != nil {
		return nil, err
	}

	mnemonic, err := s.decryptOptional(share.Mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt share mnemonic, %w", err)
	}

	views, err := s.consume(ctx, share)
	if err != nil {
		return nil, err
	}

	return &SharedFolder{
		Token:     share.Token,
		Folder:    *folder,
		Bucket:    share.Bucket,
		ItemToken: share.ItemToken,
		Mnemonic:  mnemonic,
		Views:     views,
	}, nil
}

func (s *ShareService) findShare(ctx context.Context, token string, isFolder bool) (*model.Share, error) {
	if token == "" {
		return nil, apperr.ErrShareNotFound
	}

	share, err := s.repos.Shares.FindByToken(ctx, token, isFolder)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrShareNotFound
		}

		return nil, fmt.Errorf("failed to look up share, %w", err)
	}

	// Used up shares are as dead as deleted ones
	if share.Views != nil && *share.Views <= 0 {
		return nil, apperr.ErrShareNotFound
	}

	return share, nil
}

// consume takes a view and returns what is left after it
func (s *ShareService) consume(ctx context.Context, share *model.Share) (*int, error) {
	ok, err := s.repos.Shares.ConsumeView(ctx, share.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume share view, %w", err)
	}

	if !ok {
		return nil, apperr.ErrShareNotFound
	}

	if share.Views == nil {
		return nil, nil
	}

	left := *share.Views - 1
	return &left, nil
}

func (s *ShareService) sharedRoot(ctx context.Context, share *model.Share) (*model.Folder, error) {
	id, err := strconv.ParseUint(share.ItemID, 10, 64)
	if err != nil {
		return nil, apperr.ErrShareNotFound
	}

	folder, err := s.repos.Folders.FindOwned(ctx, uint(id), share.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrShareNotFound
		}

		return nil, fmt.Errorf("failed to look up shared folder, %w", err)
	}

	return folder, nil
}

// ListSharedFolders returns a page of the sub folders of q.DirectoryID
func (s *ShareService) ListSharedFolders(ctx context.Context, q DirectoryQuery) ([]model.Folder, error) {
	dir, err := s.resolveDirectory(ctx, &q)
	if err != nil {
		return nil, err
	}

	folders, err := s.repos.Folders.Children(ctx, dir, q.Offset, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared folders, %w", err)
	}

	return folders, nil
}

// ListSharedFiles returns a page of the files in q.DirectoryID
func (s *ShareService) ListSharedFiles(ctx context.Context, q DirectoryQuery) ([]model.File, error) {
	dir, err := s.resolveDirectory(ctx, &q)
	if err != nil {
		return nil, err
	}

	files, err := s.repos.Files.InFolder(ctx, dir, q.Offset, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared files, %w", err)
	}

	return files, nil
}

// resolveDirectory checks the code and that the directory lies in the shared
// subtree. It normalizes the paging of q.
func (s *ShareService) resolveDirectory(ctx context.Context, q *DirectoryQuery) (uint, error) {
	if err := normalizePage(&q.Offset, &q.Limit); err != nil {
		return 0, err
	}

	share, err := s.findShare(ctx, q.Token, true)
	if err != nil {
		return 0, err
	}

	if q.Code == "" || !s.vault.Equal(q.Code, share.CodeHash) {
		return 0, apperr.ErrShareNotFound
	}

	root, err := s.sharedRoot(ctx, share)
	if err != nil {
		return 0, err
	}

	if q.DirectoryID == 0 || q.DirectoryID == root.ID {
		return root.ID, nil
	}

	current := q.DirectoryID
	for range maxFolderDepth {
		f, err := s.repos.Folders.FindByID(ctx, current)
		if err != nil {
			if repository.IsNotFound(err) {
				return 0, apperr.ErrShareNotFound
			}

			return 0, fmt.Errorf("failed to walk shared folder, %w", err)
		}

		if f.UserID != share.UserID || f.ParentID == nil {
			return 0, apperr.ErrShareNotFound
		}

		if *f.ParentID == root.ID {
			return q.DirectoryID, nil
		}

		current = *f.ParentID
	}

	return 0, apperr.ErrShareNotFound
}

// List returns the live shares of owner
func (s *ShareService) List(ctx context.Context, owner string) ([]model.Share, error) {
	shares, err := s.repos.Shares.FindByUser(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares, %w", err)
	}

	return shares, nil
}

// Delete revokes a share of owner
func (s *ShareService) Delete(ctx context.Context, owner, token string) error {
	removed, err := s.repos.Shares.Delete(ctx, owner, token)
	if err != nil {
		return fmt.Errorf("failed to delete share, %w", err)
	}

	if !removed {
		return apperr.ErrShareNotFound
	}

	return nil
}

func validateViews(views *int) error {
	if views != nil && *views <= 0 {
		return apperr.InvalidArgument("views must be a positive number")
	}

	return nil
}

func normalizePage(offset, limit *int) error {
	if *offset < 0 {
		return apperr.InvalidArgument("offset must not be negative")
	}

	if *limit == 0 {
		*limit = DefaultPageSize
	}

	if *limit < 0 || *limit > MaxPageSize {
		return apperr.InvalidArgument(fmt.Sprintf("limit must be between 1 and %d", MaxPageSize))
	}

	return nil
}
