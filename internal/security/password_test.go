package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("correct horse battery staples", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword("same password", first))
	assert.True(t, VerifyPassword("same password", second))
}

func TestHashPasswordEmpty(t *testing.T) {
	hash, err := HashPassword("")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("", hash))
	assert.False(t, VerifyPassword("x", hash))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not a hash",
		"$argon2id$v=19$t=3,m=65536,p=2$!!!$???",
		"$argon2id$v=19$garbage",
		"$bcrypt$whatever",
	}
	for _, encoded := range cases {
		assert.False(t, VerifyPassword("password", encoded), "hash %q", encoded)
	}
}
