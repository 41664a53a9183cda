package validators

import (
	"errors"
	"regexp"
	"strconv"
)

var (
	ErrInvalidID     = errors.New("invalid id provided")
	ErrInvalidViews  = errors.New("views must be a positive number")
	ErrInvalidOffset = errors.New("offset must be a non negative number")
	ErrInvalidLimit  = errors.New("limit must be a positive number")
	ErrInvalidToken  = errors.New("invalid token provided")
	ErrInvalidLockID = errors.New("invalid lock id provided")
)

var (
	hexToken = regexp.MustCompile(`^[0-9a-f]{16,128}$`)
	lockID   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// UintID parses a numeric path id
func UintID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, ErrInvalidID
	}

	return uint(n), nil
}

func ViewsValidator(views *int) error {
	if views != nil && *views <= 0 {
		return ErrInvalidViews
	}

	return nil
}

// TokenValidator accepts the hex encoded tokens minted for shares and invitations
func TokenValidator(t string) error {
	if !hexToken.MatchString(t) {
		return ErrInvalidToken
	}

	return nil
}

func LockIDValidator(id string) error {
	if !lockID.MatchString(id) {
		return ErrInvalidLockID
	}

	return nil
}

// Page parses offset and limit query values. Empty values yield 0, which the
// share service replaces by its default page size.
func Page(offset, limit string) (int, int, error) {
	var o, l int
	var err error

	if offset != "" {
		if o, err = strconv.Atoi(offset); err != nil || o < 0 {
			return 0, 0, ErrInvalidOffset
		}
	}

	if limit != "" {
		if l, err = strconv.Atoi(limit); err != nil || l <= 0 {
			return 0, 0, ErrInvalidLimit
		}
	}

	return o, l, nil
}
