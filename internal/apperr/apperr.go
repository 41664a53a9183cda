// Package apperr defines the closed set of error kinds the domain services
// return. The HTTP layer switches on Kind and never inspects messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindUnauthorized
	KindPrecondition
	KindUpstream
	KindCrypto
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindPrecondition:
		return "precondition"
	case KindUpstream:
		return "upstream"
	case KindCrypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// Error is a tagged domain error. Two errors are equal for errors.Is when
// their codes match, so payload-carrying copies still match the sentinel.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ", " + e.Err.Error()
	}

	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Msg: e.Msg, Err: err}
}

func define(k Kind, code, msg string) *Error {
	return &Error{Kind: k, Code: code, Msg: msg}
}

var (
	ErrTeamNotFound           = define(KindNotFound, "team_not_found", "team not found")
	ErrTeamInvitationNotFound = define(KindNotFound, "team_invitation_not_found", "team invitation not found")
	ErrTeamMemberNotFound     = define(KindNotFound, "team_member_not_found", "team member not found")
	ErrUserNotFound           = define(KindNotFound, "user_not_found", "user not found")
	ErrFileNotFound           = define(KindNotFound, "file_not_found", "file not found")
	ErrFolderNotFound         = define(KindNotFound, "folder_not_found", "folder not found")
	ErrShareNotFound          = define(KindNotFound, "share_not_found", "share not found")
	ErrLockNotFound           = define(KindNotFound, "lock_not_found", "lock not found")

	ErrMemberAlreadyInOtherTeam = define(KindConflict, "member_already_in_other_team", "member is already in other team")
	ErrTeamMemberLimitReached   = define(KindConflict, "team_member_limit_reached", "team member limit reached")
	ErrTeamAlreadyExists        = define(KindConflict, "team_already_exists", "user already administers a team")
	ErrTeamEncryptionMismatch   = define(KindConflict, "team_encryption_mismatch", "teams encryption data for team member is wrong")
	ErrAdminRemoval             = define(KindConflict, "admin_removal", "the team admin can not be removed")
	ErrTeamNotInitialized       = define(KindConflict, "team_not_initialized", "team was not initialized on the network")
	ErrLockConflict             = define(KindConflict, "lock_conflict", "folder is locked")

	ErrUnauthorizedSendInvitationAttempt = define(KindUnauthorized, "unauthorized_send_invitation_attempt", "not allowed to send invitations")
	ErrUnauthorizedRemovalAttempt        = define(KindUnauthorized, "unauthorized_removal_attempt", "not allowed to remove members")

	ErrUserHasMissingKeys   = define(KindPrecondition, "user_has_missing_keys", "user has missing keys")
	ErrMissingMetadata      = define(KindPrecondition, "missing_metadata", "missing metadata")
	ErrMissingMetadataField = define(KindPrecondition, "missing_metadata_field", "missing metadata field")
	ErrMalformedMetadata    = define(KindPrecondition, "malformed_metadata", "malformed metadata")
	ErrSeatCountMismatch    = define(KindPrecondition, "seat_count_mismatch", "purchased seats do not match the team seat count")
	ErrInvalidArgument      = define(KindPrecondition, "invalid_argument", "invalid argument")

	ErrTeamsNotPaid   = define(KindUpstream, "teams_not_paid", "team is not paid")
	ErrPaymentsFailed = define(KindUpstream, "payments_failed", "payments provider request failed")
	ErrGatewayFailed  = define(KindUpstream, "gateway_failed", "network gateway request failed")
	ErrNetworkFailed  = define(KindUpstream, "network_failed", "network request failed")

	ErrVaultKeyMissing = define(KindCrypto, "vault_key_missing", "vault key is not configured")
	ErrVaultKeyInvalid = define(KindCrypto, "vault_key_invalid", "vault key must be 32 hex encoded bytes")
)

func MissingMetadataField(field string) *Error {
	return &Error{
		Kind: KindPrecondition,
		Code: ErrMissingMetadataField.Code,
		Msg:  fmt.Sprintf("missing metadata field %q", field),
	}
}

func MalformedMetadata(field, reason string) *Error {
	if reason == "" {
		reason = "unknown"
	}

	return &Error{
		Kind: KindPrecondition,
		Code: ErrMalformedMetadata.Code,
		Msg:  fmt.Sprintf("metadata field %q is malformed, reason %s", field, reason),
	}
}

func InvalidArgument(msg string) *Error {
	return &Error{Kind: KindPrecondition, Code: ErrInvalidArgument.Code, Msg: msg}
}

// KindOf reports the kind of the first *Error in err's chain
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return 0, false
}
