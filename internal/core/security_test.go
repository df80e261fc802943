// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	valid, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	require.True(t, valid)

	valid, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	require.False(t, valid)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	h1, err := HashPassword("same input")
	require.NoError(t, err)
	h2, err := HashPassword("same input")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-hash")
	require.Error(t, err)

	_, err = VerifyPassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$abc$def")
	require.Error(t, err)
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)

	valid, err := VerifyPasswordTimingSafe("secret-password", &hash)
	require.NoError(t, err)
	require.True(t, valid)

	valid, err = VerifyPasswordTimingSafe("wrong", &hash)
	require.NoError(t, err)
	require.False(t, valid)

	// Missing hash still returns cleanly after the dummy comparison.
	valid, err = VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	require.False(t, valid)

	empty := ""
	valid, err = VerifyPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	require.False(t, valid)
}
