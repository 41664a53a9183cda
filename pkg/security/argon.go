// Package security contains everything related to the security of user data
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

type ArgonHash struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func NewArgon() *ArgonHash {
	return &ArgonHash{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Salt returns SaltLength random bytes
func (a *ArgonHash) Salt() ([]byte, error) {
	return genRandByt(a.SaltLength)
}

// DeriveKey stretches p with salt into a hex encoded argon2id key
func (a *ArgonHash) DeriveKey(p string, salt []byte) string {
	key := argon2.IDKey([]byte(p), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)
	return hex.EncodeToString(key)
}

func genRandByt(n uint32) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// HashPassword derives a key from p with a fresh salt. Both are returned hex encoded.
func (a *ArgonHash) HashPassword(p string) (hash, salt string, err error) {
	s, err := a.Salt()
	if err != nil {
		return "", "", err
	}

	return a.DeriveKey(p, s), hex.EncodeToString(s), nil
}

func (a *ArgonHash) VerifyPassword(p, hash, salt string) bool {
	s, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(a.DeriveKey(p, s)), []byte(hash)) == 1
}
