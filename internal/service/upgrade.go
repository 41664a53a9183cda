package service

import (
	"context"
	"fmt"
	"math"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/fork-archive-hub/drive-server/pkg/security"
	"go.uber.org/zap"
)

// BucketCreator creates storage buckets on the Network
type BucketCreator interface {
	CreateBucket(ctx context.Context, bridgeUser, name string) (string, error)
}

// CheckoutCompletion is the payment completion event of a teams checkout
type CheckoutCompletion struct {
	SessionID string
	Mnemonic  string
	Email     string
}

type UpgradeOrchestrator struct {
	repos    *repository.Repos
	vault    *security.Vault
	teams    *TeamsService
	payments Payments
	gateway  StorageGateway
	buckets  BucketCreator
}

type UpgradeOptions struct {
	Vault    *security.Vault
	Teams    *TeamsService
	Payments Payments
	Gateway  StorageGateway
	Buckets  BucketCreator
}

func NewUpgradeOrchestrator(repos *repository.Repos, o UpgradeOptions) *UpgradeOrchestrator {
	return &UpgradeOrchestrator{
		repos:    repos,
		vault:    o.Vault,
		teams:    o.Teams,
		payments: o.Payments,
		gateway:  o.Gateway,
		buckets:  o.Buckets,
	}
}

// CompleteTeamsCheckoutSession provisions the team of ev.Email once its
// checkout is paid: Network credentials for the proxy account, its bucket, the
// purchased seats and storage, and the admin as first member. Every step
// re-checks persisted state, so a failed run can be retried with the same event.
func (u *UpgradeOrchestrator) CompleteTeamsCheckoutSession(ctx context.Context, ev CheckoutCompletion) (*model.Team, error) {
	if ev.SessionID == "" || ev.Email == "" {
		return nil, apperr.InvalidArgument("session id and email are required")
	}

	session, err := u.payments.RetrieveTeamsCheckoutSession(ctx, ev.SessionID)
	if err != nil {
		return nil, err
	}

	if !session.Paid {
		return nil, apperr.ErrTeamsNotPaid
	}

	if session.TotalMembers <= 0 {
		return nil, apperr.MalformedMetadata(totalMembersField, "must be a positive integer")
	}

	if session.SubscriptionID == "" {
		return nil, apperr.MissingMetadataField("subscription")
	}

	perMember, err := u.payments.SubscriptionStorage(ctx, session.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if perMember > math.MaxInt64/int64(session.TotalMembers) {
		return nil, apperr.MalformedMetadata(storageBytesField, "storage overflows when multiplied by seats")
	}
	bytesTotal := perMember * int64(session.TotalMembers)

	team, err := u.teams.GetAdminTeam(ctx, ev.Email)
	if err != nil {
		return nil, err
	}

	password, salt := team.BridgePassword, ""
	if password == "" {
		creds, err := u.vault.NetworkCredentials()
		if err != nil {
			return nil, err
		}
		password, salt = creds.Password, creds.Salt
	}

	proxy, err := u.registerProxy(ctx, team, password, salt, ev.Mnemonic)
	if err != nil {
		return nil, err
	}
	// An account left by an interrupted run keeps its credentials
	password = proxy.Password

	if proxy.Bucket == "" {
		bucket, err := u.buckets.CreateBucket(ctx, team.BridgeUser, team.Name)
		if err != nil {
			return nil, apperr.ErrNetworkFailed.Wrap(err)
		}

		if err := u.repos.Users.SetBucket(ctx, proxy.ID, bucket); err != nil {
			return nil, fmt.Errorf("failed to record team bucket, %w", err)
		}
	}

	err = u.repos.Teams.Update(ctx, team.ID, map[string]any{
		"bridge_password": password,
		"total_members":   session.TotalMembers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update team, %w", err)
	}

	team, err = u.repos.Teams.FindByID(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload team, %w", err)
	}

	if team.TotalMembers != session.TotalMembers {
		return nil, apperr.ErrSeatCountMismatch
	}

	if err := u.gateway.UpgradeStorage(ctx, team.BridgeUser, bytesTotal); err != nil {
		return nil, err
	}

	if err := u.teams.AddMemberToTeam(ctx, team.ID, team.Admin, team.BridgePassword, team.BridgeMnemonic); err != nil {
		return nil, err
	}

	zap.L().Info("Team storage upgraded",
		zap.Uint("team_id", team.ID),
		zap.Int("total_members", team.TotalMembers),
		zap.Int64("bytes", bytesTotal),
	)

	return team, nil
}

func (u *UpgradeOrchestrator) registerProxy(ctx context.Context, team *model.Team, password, salt, mnemonic string) (*model.User, error) {
	encMnemonic, err := u.encryptOptional(mnemonic)
	if err != nil {
		return nil, err
	}

	proxy, created, err := u.repos.Users.FindOrCreate(ctx, &model.User{
		Email:      team.BridgeUser,
		Name:       team.Name,
		BridgeUser: team.BridgeUser,
		Password:   password,
		Salt:       salt,
		Mnemonic:   encMnemonic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register team account, %w", err)
	}

	if created {
		zap.L().Debug("Team account registered", zap.Uint("team_id", team.ID), zap.String("user_id", proxy.ID))
	}

	return proxy, nil
}

func (u *UpgradeOrchestrator) encryptOptional(v string) (string, error) {
	if v == "" {
		return "", nil
	}

	return u.vault.Encrypt(v)
}
