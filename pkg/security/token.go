package security

import (
	"encoding/hex"
)

const (
	// TokenSize is the entropy in bytes of invitation and share tokens
	TokenSize = 32
	// CodeSize is the entropy in bytes of folder share codes
	CodeSize = 8
)

// GenerateToken returns n random bytes hex encoded
func GenerateToken(n int) (string, error) {
	b, err := genRandByt(uint32(n))
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func NewToken() (string, error) { return GenerateToken(TokenSize) }

func NewCode() (string, error) { return GenerateToken(CodeSize) }
