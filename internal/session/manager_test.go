package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, rotate bool) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewManager(client, rotate)
}

func TestIssueAndResolve(t *testing.T) {
	m := newManager(t, false)
	ctx := context.Background()

	token, err := m.Issue(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	// 32 random bytes base64url-encoded without padding.
	require.Len(t, token, 43)

	userID, ok, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), userID)
}

func TestIssueReusesExistingToken(t *testing.T) {
	m := newManager(t, false)
	ctx := context.Background()

	first, err := m.Issue(ctx, 7)
	require.NoError(t, err)
	second, err := m.Issue(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, first, second)

	_, ok, err := m.Resolve(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIssueRotatesWhenConfigured(t *testing.T) {
	m := newManager(t, true)
	ctx := context.Background()

	first, err := m.Issue(ctx, 7)
	require.NoError(t, err)
	second, err := m.Issue(ctx, 7)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, ok, err := m.Resolve(ctx, first)
	require.NoError(t, err)
	require.False(t, ok, "prior token should be revoked under rotation")

	_, ok, err = m.Resolve(ctx, second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRevokedAndUnknownTokensAreIndistinguishable(t *testing.T) {
	m := newManager(t, false)
	ctx := context.Background()

	token, err := m.Issue(ctx, 9)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, token))

	_, okRevoked, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	_, okUnknown, err2 := m.Resolve(ctx, "never-issued")
	require.NoError(t, err2)
	require.Equal(t, okUnknown, okRevoked)
	require.False(t, okRevoked)
}

func TestRevokeIsIdempotent(t *testing.T) {
	m := newManager(t, false)
	ctx := context.Background()

	token, err := m.Issue(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, token))
	require.NoError(t, m.Revoke(ctx, token))
	require.NoError(t, m.Revoke(ctx, "absent"))
}

func TestRevokeClearsReverseIndex(t *testing.T) {
	m := newManager(t, false)
	ctx := context.Background()

	token, err := m.Issue(ctx, 11)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, token))

	// A fresh login mints a new token instead of resurrecting the old one.
	next, err := m.Issue(ctx, 11)
	require.NoError(t, err)
	require.NotEqual(t, token, next)
}

func TestRevokeUser(t *testing.T) {
	m := newManager(t, false)
	ctx := context.Background()

	token, err := m.Issue(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, m.RevokeUser(ctx, 5))

	_, ok, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.RevokeUser(ctx, 5))
}

func TestTokenForUser(t *testing.T) {
	m := newManager(t, false)
	ctx := context.Background()

	_, ok, err := m.TokenForUser(ctx, 20)
	require.NoError(t, err)
	require.False(t, ok)

	token, err := m.Issue(ctx, 20)
	require.NoError(t, err)
	got, ok, err := m.TokenForUser(ctx, 20)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, token, got)
}
