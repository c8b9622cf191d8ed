package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordVerifier(t *testing.T) {
	t.Parallel()

	verifier := NewPasswordVerifier(bcrypt.MinCost)
	hash, err := verifier.Hash("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	t.Run("match", func(t *testing.T) {
		t.Parallel()
		require.True(t, verifier.Verify("password123", hash))
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()
		require.False(t, verifier.Verify("password124", hash))
	})

	t.Run("malformed hash is a mismatch", func(t *testing.T) {
		t.Parallel()
		require.False(t, verifier.Verify("password123", "not-a-bcrypt-hash"))
		require.False(t, verifier.Verify("password123", ""))
	})
}

func TestPasswordVerifierRejectsEmptyPassword(t *testing.T) {
	t.Parallel()

	_, err := NewPasswordVerifier(bcrypt.MinCost).Hash("")
	require.Error(t, err)
}

func TestPasswordVerifierClampsCost(t *testing.T) {
	t.Parallel()

	require.Equal(t, bcrypt.DefaultCost, NewPasswordVerifier(1).cost)
	require.Equal(t, 12, NewPasswordVerifier(12).cost)
}
