package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	a := NewArgon()

	hash, salt, err := a.HashPassword("correct horse")
	require.NoError(t, err)
	assert.Len(t, salt, int(a.SaltLength)*2)

	assert.True(t, a.VerifyPassword("correct horse", hash, salt))
	assert.False(t, a.VerifyPassword("battery staple", hash, salt))
	assert.False(t, a.VerifyPassword("correct horse", hash, "not-hex"))

	other, otherSalt, err := a.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, salt, otherSalt)
	assert.NotEqual(t, hash, other)
}
