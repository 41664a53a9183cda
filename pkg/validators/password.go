package validators

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordRunes = 8
	// argon2 hashes the whole input, so keep it bounded
	maxPasswordBytes = 255
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
)

func PasswordValidator(p string) error {
	if strings.TrimSpace(p) == "" {
		return ErrPasswordEmpty
	}

	if len(p) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	if utf8.RuneCountInString(p) < minPasswordRunes {
		return ErrPasswordTooShort
	}

	return nil
}
