package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newArgon(t *testing.T, pepper string) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(PasswordArgon2id, 0, pepper)
	require.NoError(t, err)
	return h
}

func newBcrypt(t *testing.T, pepper string) *PasswordHasher {
	t.Helper()
	// MinCost keeps the suite fast; production defaults to 12.
	h, err := NewPasswordHasher(PasswordBcrypt, 4, pepper)
	require.NoError(t, err)
	return h
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("", 0, "")
	require.NoError(t, err)
	require.Equal(t, PasswordArgon2id, h.Algorithm())

	_, err = NewPasswordHasher(PasswordBcrypt, 99, "")
	require.Error(t, err)

	_, err = NewPasswordHasher("md5", 0, "")
	require.Error(t, err)
}

func TestHashPassword_Argon2idFormat(t *testing.T) {
	h := newArgon(t, "pepper")

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash should be in PHC format")

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	require.Equal(t, "m=19456,t=2,p=1", parts[3])
	require.NotEmpty(t, parts[4], "salt should not be empty")
	require.NotEmpty(t, parts[5], "hash should not be empty")
}

func TestHashPassword_RoundTrip(t *testing.T) {
	passwords := []string{
		"password123",
		"P@ssw0rd!#$%^&*()",
		strings.Repeat("a", 128),
		"пароль🔒密码",
		"   spaces   ",
	}

	for name, h := range map[string]*PasswordHasher{
		"argon2id": newArgon(t, "pepper"),
		"bcrypt":   newBcrypt(t, "pepper"),
	} {
		t.Run(name, func(t *testing.T) {
			for _, pw := range passwords {
				hash, err := h.Hash(pw)
				require.NoError(t, err)
				require.NoError(t, h.Verify(pw, hash))
				require.ErrorIs(t, h.Verify(pw+"x", hash), ErrPasswordMismatch)
			}
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h := newArgon(t, "")

	hash1, err := h.Hash("samepassword")
	require.NoError(t, err)
	hash2, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.NoError(t, h.Verify("samepassword", hash1))
	require.NoError(t, h.Verify("samepassword", hash2))
}

func TestVerifyPassword_CrossAlgorithm(t *testing.T) {
	argon := newArgon(t, "pepper")
	bc := newBcrypt(t, "pepper")

	argonHash, err := argon.Hash("password123")
	require.NoError(t, err)
	bcryptHash, err := bc.Hash("password123")
	require.NoError(t, err)

	// Either hasher verifies either encoding as long as the pepper matches.
	require.NoError(t, bc.Verify("password123", argonHash))
	require.NoError(t, argon.Verify("password123", bcryptHash))
}

func TestVerifyPassword_PepperMismatch(t *testing.T) {
	hash, err := newArgon(t, "pepper-a").Hash("password123")
	require.NoError(t, err)

	err = newArgon(t, "pepper-b").Verify("password123", hash)
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	h := newArgon(t, "")

	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"unknown scheme", "$scrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"truncated bcrypt", "$2a$04$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Verify("test-password", tt.invalidHash)
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrPasswordMismatch)
		})
	}
}

func TestVerifyDummy(t *testing.T) {
	h := newArgon(t, "")
	require.NotPanics(t, func() {
		h.VerifyDummy("whatever")
		h.VerifyDummy("whatever-again")
	})
	require.NotEmpty(t, h.dummy)
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, string(data))

	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	none, err := LoadOrCreatePepper("")
	require.NoError(t, err)
	require.Empty(t, none)
}
