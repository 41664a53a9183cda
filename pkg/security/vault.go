package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
)

var ErrCiphertextInvalid = errors.New("ciphertext is malformed")

// teamPasswordSeed is stretched with a fresh salt for every proxy account
const teamPasswordSeed = "team"

// Vault encrypts secrets before they reach the datastore. The key is held by
// the server and never derived from user input.
type Vault struct {
	key   []byte
	aead  cipher.AEAD
	argon *ArgonHash
}

// NetworkCredentials is a derived Network password with its salt, both
// already encrypted by the vault
type NetworkCredentials struct {
	Password string
	Salt     string
}

// NewVault builds a vault from a hex encoded 32 byte key. A missing or bad key
// is a startup failure.
func NewVault(hexKey string) (*Vault, error) {
	if hexKey == "" {
		return nil, apperr.ErrVaultKeyMissing
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, apperr.ErrVaultKeyInvalid
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.ErrVaultKeyInvalid.Wrap(err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.ErrVaultKeyInvalid.Wrap(err)
	}

	return &Vault{
		key:   key,
		aead:  aead,
		argon: NewArgon(),
	}, nil
}

// Encrypt seals plaintext with AES-256-GCM under a random nonce and returns
// hex(nonce || ciphertext)
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce, %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

func (v *Vault) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrCiphertextInvalid
	}

	n := v.aead.NonceSize()
	if len(raw) < n+v.aead.Overhead() {
		return "", ErrCiphertextInvalid
	}

	plaintext, err := v.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt, %w", err)
	}

	return string(plaintext), nil
}

// Hash is a keyed HMAC-SHA256 digest of plaintext
func (v *Vault) Hash(plaintext string) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// Equal reports whether digest was produced by Hash(plaintext)
func (v *Vault) Equal(plaintext, digest string) bool {
	return hmac.Equal([]byte(v.Hash(plaintext)), []byte(digest))
}

// NetworkCredentials derives a fresh password for a proxy account
func (v *Vault) NetworkCredentials() (*NetworkCredentials, error) {
	salt, err := v.argon.Salt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt, %w", err)
	}

	password := v.argon.DeriveKey(teamPasswordSeed, salt)

	encPassword, err := v.Encrypt(password)
	if err != nil {
		return nil, err
	}

	encSalt, err := v.Encrypt(hex.EncodeToString(salt))
	if err != nil {
		return nil, err
	}

	return &NetworkCredentials{
		Password: encPassword,
		Salt:     encSalt,
	}, nil
}
