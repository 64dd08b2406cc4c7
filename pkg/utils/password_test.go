package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.NotEmpty(hash)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = VerifyPassword("wrong password", hash)
	req.NoError(err)
	req.False(ok)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("same input")
	req.NoError(err)
	second, err := HashPassword("same input")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-phc-string")
	require.Error(t, err)
}
