package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// runContract exercises the behaviour every Store must share.
func runContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyAccessToken)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyAccessToken, "a1"))
	require.NoError(t, s.Set(ctx, KeyRefreshToken, "r1"))
	require.NoError(t, s.Set(ctx, KeyCartSessionKey, "web_123"))

	v, err := s.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "a1", v)

	require.NoError(t, s.Set(ctx, KeyAccessToken, "a2"))
	v, err = s.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "a2", v)

	require.NoError(t, s.Remove(ctx, KeyAccessToken, KeyRefreshToken, "never-set"))

	_, err = s.Get(ctx, KeyAccessToken)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, KeyRefreshToken)
	require.ErrorIs(t, err, ErrNotFound)

	v, ok, err := Lookup(ctx, s, KeyCartSessionKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "web_123", v)

	require.NoError(t, s.Remove(ctx))
}
