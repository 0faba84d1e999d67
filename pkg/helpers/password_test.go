package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashers(t *testing.T) {
	hashers := map[string]PasswordHasher{
		"bcrypt":   BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2idHasher{Time: 1, Memory: 8 * 1024, Threads: 1},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("Str0ngPass!")
			require.NoError(t, err)
			assert.NotEqual(t, "Str0ngPass!", hash)

			assert.True(t, h.Verify(hash, "Str0ngPass!"))
			assert.False(t, h.Verify(hash, "str0ngpass!"))
			assert.False(t, h.Verify("not-a-hash", "Str0ngPass!"))

			_, err = h.Hash("")
			assert.ErrorIs(t, err, ErrEmptyPassword)
		})
	}
}

func TestArgon2idHashesAreSalted(t *testing.T) {
	h := Argon2idHasher{Time: 1, Memory: 8 * 1024, Threads: 1}
	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "$argon2id$v=19$m=8192,t=1,p=1$")
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	h, err = NewPasswordHasher("Argon2id")
	require.NoError(t, err)
	assert.IsType(t, Argon2idHasher{}, h)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}
