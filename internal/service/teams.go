package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/fork-archive-hub/drive-server/internal/repository"
	"github.com/fork-archive-hub/drive-server/pkg/security"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const teamTokenTTL = time.Hour * 24 * 14

// UserLookup resolves application users by email
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// KeyPresenceCheck tells whether a user has uploaded a key pair
type KeyPresenceCheck interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// InvitationRequest is what an admin supplies when inviting a user. Mnemonic
// is the team mnemonic already encrypted for the invitee.
type InvitationRequest struct {
	Email    string
	Mnemonic string
}

// InvitationResult is the outcome of SendInvitation. Token is empty when the
// invitee already belongs to the team.
type InvitationResult struct {
	Token         string `json:"token,omitempty"`
	AlreadyMember bool   `json:"alreadyMember"`
}

// TeamInfo is what a member needs to act on behalf of the team
type TeamInfo struct {
	ID             uint   `json:"id"`
	Admin          string `json:"admin"`
	Name           string `json:"name"`
	BridgeUser     string `json:"bridgeUser"`
	BridgePassword string `json:"bridgePassword"`
	BridgeMnemonic string `json:"bridgeMnemonic"`
	TotalMembers   int    `json:"totalMembers"`
	IsAdmin        bool   `json:"isAdmin"`
	Bucket         string `json:"bucket"`
	RootFolderID   *uint  `json:"root_folder_id"`
}

type TeamsService struct {
	repos        *repository.Repos
	users        UserLookup
	keys         KeyPresenceCheck
	mailer       InvitationMailer
	vault        *security.Vault
	jwtSecret    []byte
	bridgeDomain string
}

type TeamsOptions struct {
	Users        UserLookup
	Keys         KeyPresenceCheck
	Mailer       InvitationMailer
	Vault        *security.Vault
	JWTSecret    string
	BridgeDomain string
}

func NewTeamsService(repos *repository.Repos, o TeamsOptions) *TeamsService {
	users, keys := o.Users, o.Keys
	if users == nil {
		users = repos.Users
	}

	if keys == nil {
		keys = repos.Keys
	}

	return &TeamsService{
		repos:        repos,
		users:        users,
		keys:         keys,
		mailer:       o.Mailer,
		vault:        o.Vault,
		jwtSecret:    []byte(o.JWTSecret),
		bridgeDomain: o.BridgeDomain,
	}
}

// CreateTeam registers a team administered by adminEmail. The team holds no
// Network credentials until its checkout completes.
func (s *TeamsService) CreateTeam(ctx context.Context, adminEmail, name, bridgeMnemonic string) (*model.Team, error) {
	if strings.TrimSpace(bridgeMnemonic) == "" {
		return nil, apperr.InvalidArgument("bridge mnemonic is required")
	}

	if _, err := s.repos.Teams.FindByAdmin(ctx, adminEmail); err == nil {
		return nil, apperr.ErrTeamAlreadyExists
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up admin team, %w", err)
	}

	if _, err := s.repos.Members.FindByEmail(ctx, adminEmail); err == nil {
		return nil, apperr.ErrMemberAlreadyInOtherTeam
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up membership, %w", err)
	}

	prefix, err := security.GenerateToken(8)
	if err != nil {
		return nil, err
	}

	mnemonic, err := s.vault.Encrypt(bridgeMnemonic)
	if err != nil {
		return nil, err
	}

	team := &model.Team{
		Admin:          adminEmail,
		Name:           name,
		BridgeUser:     fmt.Sprintf("%s-team@%s", prefix, s.bridgeDomain),
		BridgeMnemonic: mnemonic,
	}

	if err := s.repos.Teams.Create(ctx, team); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperr.ErrTeamAlreadyExists
		}

		return nil, fmt.Errorf("failed to create team, %w", err)
	}

	zap.L().Info("Team created", zap.Uint("team_id", team.ID), zap.String("admin", team.Admin))
	return team, nil
}

func (s *TeamsService) GetAdminTeam(ctx context.Context, email string) (*model.Team, error) {
	team, err := s.repos.Teams.FindByAdmin(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrTeamNotFound
		}

		return nil, fmt.Errorf("failed to look up admin team, %w", err)
	}

	return team, nil
}

// GetMemberTeam returns the team email is a member of
func (s *TeamsService) GetMemberTeam(ctx context.Context, email string) (*model.Team, *model.TeamMember, error) {
	member, err := s.repos.Members.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperr.ErrTeamNotFound
		}

		return nil, nil, fmt.Errorf("failed to look up membership, %w", err)
	}

	team, err := s.repos.Teams.FindByID(ctx, member.TeamID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperr.ErrTeamNotFound
		}

		return nil, nil, fmt.Errorf("failed to look up team, %w", err)
	}

	return team, member, nil
}

// ListMembers returns the members of the caller's team, the caller excluded
func (s *TeamsService) ListMembers(ctx context.Context, adminEmail string) ([]model.TeamMember, error) {
	team, err := s.GetAdminTeam(ctx, adminEmail)
	if err != nil {
		return nil, err
	}

	members, err := s.repos.Members.FindByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members, %w", err)
	}

	out := members[:0]
	for _, m := range members {
		if m.Email != team.Admin {
			out = append(out, m)
		}
	}

	return out, nil
}

func (s *TeamsService) ListInvitations(ctx context.Context, adminEmail string) ([]model.TeamInvitation, error) {
	team, err := s.GetAdminTeam(ctx, adminEmail)
	if err != nil {
		return nil, err
	}

	invs, err := s.repos.Invitations.FindByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations, %w", err)
	}

	return invs, nil
}

// SendInvitation invites req.Email into the team administered by adminEmail.
// Re-inviting a pending invitee resends the mail and returns the same token.
func (s *TeamsService) SendInvitation(ctx context.Context, adminEmail string, req InvitationRequest) (*InvitationResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Mnemonic) == "" {
		return nil, apperr.InvalidArgument("email and mnemonic are required")
	}

	team, err := s.repos.Teams.FindByAdmin(ctx, adminEmail)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrUnauthorizedSendInvitationAttempt
		}

		return nil, fmt.Errorf("failed to look up admin team, %w", err)
	}

	if team.BridgePassword == "" || team.TotalMembers <= 0 {
		return nil, apperr.ErrTeamNotInitialized
	}

	invitee, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to look up invitee, %w", err)
	}

	hasKeys, err := s.keys.Exists(ctx, invitee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check invitee keys, %w", err)
	}

	if !hasKeys {
		return nil, apperr.ErrUserHasMissingKeys
	}

	existing, err := s.repos.Invitations.FindByTeamAndEmail(ctx, team.ID, email)
	switch {
	case err == nil:
		s.mail(ctx, team, invitee, existing.Token)
		return &InvitationResult{Token: existing.Token}, nil
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("failed to look up invitation, %w", err)
	}

	member, err := s.repos.Members.FindByEmail(ctx, email)
	switch {
	case err == nil && member.TeamID == team.ID:
		return &InvitationResult{AlreadyMember: true}, nil
	case err == nil:
		return nil, apperr.ErrMemberAlreadyInOtherTeam
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("failed to look up membership, %w", err)
	}

	if err := s.checkSeats(ctx, team); err != nil {
		return nil, err
	}

	teamMnemonic, err := s.vault.Decrypt(team.BridgeMnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt team mnemonic, %w", err)
	}

	if req.Mnemonic == teamMnemonic {
		return nil, apperr.InvalidArgument("mnemonic must be encrypted for the invitee")
	}

	mnemonic, err := s.vault.Encrypt(req.Mnemonic)
	if err != nil {
		return nil, err
	}

	token, err := security.NewToken()
	if err != nil {
		return nil, err
	}

	inv := &model.TeamInvitation{
		TeamID:         team.ID,
		Email:          email,
		Token:          token,
		BridgePassword: team.BridgePassword,
		Mnemonic:       mnemonic,
	}

	if err := s.repos.Invitations.Create(ctx, inv); err != nil {
		if !repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create invitation, %w", err)
		}

		// Lost a race against an identical request
		existing, ferr := s.repos.Invitations.FindByTeamAndEmail(ctx, team.ID, email)
		if ferr != nil {
			return nil, fmt.Errorf("failed to look up invitation, %w", ferr)
		}

		return &InvitationResult{Token: existing.Token}, nil
	}

	zap.L().Info("Invitation created", zap.Uint("team_id", team.ID), zap.String("invitee", email))
	s.mail(ctx, team, invitee, token)

	return &InvitationResult{Token: token}, nil
}

// checkSeats counts members and pending invitations against the paid seats
func (s *TeamsService) checkSeats(ctx context.Context, team *model.Team) error {
	members, err := s.repos.Members.Count(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to count members, %w", err)
	}

	pending, err := s.repos.Invitations.Count(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to count invitations, %w", err)
	}

	if members+pending >= int64(team.TotalMembers) {
		return apperr.ErrTeamMemberLimitReached
	}

	return nil
}

// mail failures are logged only. The invitation row is what matters and the
// admin can always re-invite to resend.
func (s *TeamsService) mail(ctx context.Context, team *model.Team, invitee *model.User, token string) {
	if s.mailer == nil {
		return
	}

	err := s.mailer.SendInvitation(ctx, Invitation{
		To:          invitee.Email,
		InviteeName: invitee.Name,
		TeamName:    team.Name,
		Token:       token,
	})
	if err != nil {
		zap.L().Warn("Failed to queue invitation mail", zap.Error(err), zap.Uint("team_id", team.ID))
	}
}

// AcceptInvitation turns the invitation behind token into a membership. The
// insert and the invitation removal commit together.
func (s *TeamsService) AcceptInvitation(ctx context.Context, token string) (*model.Team, error) {
	if token == "" {
		return nil, apperr.ErrTeamInvitationNotFound
	}

	inv, err := s.repos.Invitations.FindByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrTeamInvitationNotFound
		}

		return nil, fmt.Errorf("failed to look up invitation, %w", err)
	}

	team, err := s.repos.Teams.FindByID(ctx, inv.TeamID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrTeamNotFound
		}

		return nil, fmt.Errorf("failed to look up team, %w", err)
	}

	invitee, err := s.users.FindByEmail(ctx, inv.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to look up invitee, %w", err)
	}

	hasKeys, err := s.keys.Exists(ctx, invitee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check invitee keys, %w", err)
	}

	if !hasKeys {
		return nil, apperr.ErrUserHasMissingKeys
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		if err := addMember(ctx, tx, team, inv.Email, inv.BridgePassword, inv.Mnemonic); err != nil {
			return err
		}

		return tx.Invitations.Delete(ctx, inv.ID)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Invitation accepted", zap.Uint("team_id", team.ID), zap.String("member", inv.Email))
	return team, nil
}

// AddMemberToTeam inserts a membership. bridgePassword and mnemonic are
// vault ciphertext. Adding an existing member of the same team is a no-op.
func (s *TeamsService) AddMemberToTeam(ctx context.Context, teamID uint, email, bridgePassword, mnemonic string) error {
	team, err := s.repos.Teams.FindByID(ctx, teamID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.ErrTeamNotFound
		}

		return fmt.Errorf("failed to look up team, %w", err)
	}

	return s.repos.Transaction(ctx, func(tx *repository.Repos) error {
		return addMember(ctx, tx, team, email, bridgePassword, mnemonic)
	})
}

// addMember must run inside a transaction. The team row lock taken first
// serializes seat counting between concurrent joins of the same team.
func addMember(ctx context.Context, r *repository.Repos, team *model.Team, email, bridgePassword, mnemonic string) error {
	team, err := r.Teams.FindForUpdate(ctx, team.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.ErrTeamNotFound
		}

		return fmt.Errorf("failed to lock team, %w", err)
	}

	resolve := func() (bool, error) {
		m, err := r.Members.FindByEmail(ctx, email)
		switch {
		case err == nil && m.TeamID == team.ID:
			return true, nil
		case err == nil:
			return false, apperr.ErrMemberAlreadyInOtherTeam
		case repository.IsNotFound(err):
			return false, nil
		default:
			return false, fmt.Errorf("failed to look up membership, %w", err)
		}
	}

	present, err := resolve()
	if err != nil || present {
		return err
	}

	n, err := r.Members.Count(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to count members, %w", err)
	}

	if n >= int64(team.TotalMembers) {
		return apperr.ErrTeamMemberLimitReached
	}

	// A savepoint keeps an enclosing transaction usable after a unique violation
	err = r.Transaction(ctx, func(inner *repository.Repos) error {
		return inner.Members.Create(ctx, &model.TeamMember{
			TeamID:         team.ID,
			Email:          email,
			BridgePassword: bridgePassword,
			BridgeMnemonic: mnemonic,
		})
	})
	if err == nil {
		return nil
	}

	if !repository.IsUniqueViolation(err) {
		return fmt.Errorf("failed to create member, %w", err)
	}

	// Someone inserted the same email first; the unique index decided
	present, rerr := resolve()
	if rerr != nil {
		return rerr
	}

	if !present {
		return fmt.Errorf("failed to create member, %w", err)
	}

	return nil
}

// RemoveMember removes target from the team administered by requestedBy
func (s *TeamsService) RemoveMember(ctx context.Context, target, requestedBy string) error {
	team, err := s.repos.Teams.FindByAdmin(ctx, requestedBy)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.ErrUnauthorizedRemovalAttempt
		}

		return fmt.Errorf("failed to look up admin team, %w", err)
	}

	if strings.EqualFold(target, team.Admin) {
		return apperr.ErrAdminRemoval
	}

	removed, err := s.repos.Members.Delete(ctx, team.ID, target)
	if err != nil {
		return fmt.Errorf("failed to remove member, %w", err)
	}

	if !removed {
		return apperr.ErrTeamMemberNotFound
	}

	zap.L().Info("Member removed", zap.Uint("team_id", team.ID), zap.String("member", target))
	return nil
}

// RevokeInvitation deletes a pending invitation of the requester's team
func (s *TeamsService) RevokeInvitation(ctx context.Context, invitationID uint, requestedBy string) error {
	inv, err := s.repos.Invitations.FindByID(ctx, invitationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.ErrTeamInvitationNotFound
		}

		return fmt.Errorf("failed to look up invitation, %w", err)
	}

	team, err := s.repos.Teams.FindByID(ctx, inv.TeamID)
	if err != nil && !repository.IsNotFound(err) {
		return fmt.Errorf("failed to look up team, %w", err)
	}

	if team == nil || !strings.EqualFold(team.Admin, requestedBy) {
		return apperr.ErrUnauthorizedRemovalAttempt
	}

	if err := s.repos.Invitations.Delete(ctx, inv.ID); err != nil {
		return fmt.Errorf("failed to delete invitation, %w", err)
	}

	return nil
}

// TeamInfo builds the member view of the caller's team along with a signed
// token scoped to the proxy account
func (s *TeamsService) TeamInfo(ctx context.Context, email string) (*TeamInfo, string, error) {
	team, member, err := s.GetMemberTeam(ctx, email)
	if err != nil {
		return nil, "", err
	}

	isAdmin := strings.EqualFold(team.Admin, member.Email)

	memberMnemonic, err := s.vault.Decrypt(member.BridgeMnemonic)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decrypt member mnemonic, %w", err)
	}

	if !isAdmin {
		teamMnemonic, err := s.vault.Decrypt(team.BridgeMnemonic)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decrypt team mnemonic, %w", err)
		}

		if memberMnemonic == teamMnemonic {
			return nil, "", apperr.ErrTeamEncryptionMismatch
		}
	}

	password, err := s.vault.Decrypt(member.BridgePassword)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decrypt bridge password, %w", err)
	}

	proxy, err := s.users.FindByEmail(ctx, team.BridgeUser)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", apperr.ErrTeamNotInitialized
		}

		return nil, "", fmt.Errorf("failed to look up team account, %w", err)
	}

	token, err := s.signTeamToken(team, member.Email)
	if err != nil {
		return nil, "", err
	}

	return &TeamInfo{
		ID:             team.ID,
		Admin:          team.Admin,
		Name:           team.Name,
		BridgeUser:     team.BridgeUser,
		BridgePassword: password,
		BridgeMnemonic: memberMnemonic,
		TotalMembers:   team.TotalMembers,
		IsAdmin:        isAdmin,
		Bucket:         proxy.Bucket,
		RootFolderID:   proxy.RootFolderID,
	}, token, nil
}

func (s *TeamsService) signTeamToken(team *model.Team, member string) (string, error) {
	now := time.Now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         member,
		"team_id":     team.ID,
		"bridge_user": team.BridgeUser,
		"iat":         now.Unix(),
		"exp":         now.Add(teamTokenTTL).Unix(),
	})

	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign team token, %w", err)
	}

	return signed, nil
}
