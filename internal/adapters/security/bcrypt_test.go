package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBcryptHashAndCompare(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("loader-secret-0123456789")
	require.NoError(t, err)
	require.NotEqual(t, "loader-secret-0123456789", hash)

	require.NoError(t, hasher.Compare(hash, "loader-secret-0123456789"))
	require.Error(t, hasher.Compare(hash, "wrong-secret"))
}
