package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	service, err := NewTokenService(DefaultTokenConfig("test-secret"))
	require.NoError(t, err)
	return service
}

func TestTokenRoundTrip(t *testing.T) {
	service := newTestTokenService(t)

	token, expires, err := service.Issue("76561198000000001")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expires, time.Minute)

	steamID, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "76561198000000001", steamID)
}

func TestTokenExpiry(t *testing.T) {
	service := newTestTokenService(t)

	token, _, err := service.Issue("76561198000000001")
	require.NoError(t, err)

	service.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = service.Verify(token)
	assert.ErrorIs(t, err, shared.ErrTokenExpired)
}

func TestTokenRejectsWrongKey(t *testing.T) {
	issuer := newTestTokenService(t)
	other, err := NewTokenService(DefaultTokenConfig("different-secret"))
	require.NoError(t, err)

	token, _, err := issuer.Issue("76561198000000001")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenRejectsGarbage(t *testing.T) {
	service := newTestTokenService(t)

	_, err := service.Verify("not.a.token")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenRequiresSteamID(t *testing.T) {
	service := newTestTokenService(t)

	_, _, err := service.Issue("")
	assert.ErrorIs(t, err, shared.ErrEmptySteamID)
}

func newTestRefreshManager() *RefreshManager {
	return NewRefreshManager(NewMemoryRefreshStore(), DefaultRefreshConfig())
}

func TestRefreshIssueAndRotate(t *testing.T) {
	ctx := context.Background()
	manager := newTestRefreshManager()

	first, err := manager.Issue(ctx, "76561198000000001")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), first.ExpiresAt, time.Minute)

	second, err := manager.Rotate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, "76561198000000001", second.SteamID)
	assert.NotEqual(t, first.Token, second.Token)

	// The old token must be dead after rotation.
	_, err = manager.Rotate(ctx, first.Token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestRefreshRotateExpired(t *testing.T) {
	ctx := context.Background()
	manager := newTestRefreshManager()

	token, err := manager.Issue(ctx, "76561198000000001")
	require.NoError(t, err)

	manager.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	_, err = manager.Rotate(ctx, token.Token)
	assert.ErrorIs(t, err, shared.ErrTokenExpired)
}

func TestRefreshRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	manager := newTestRefreshManager()

	token, err := manager.Issue(ctx, "76561198000000001")
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, token.Token))
	require.NoError(t, manager.Revoke(ctx, token.Token))

	_, err = manager.Rotate(ctx, token.Token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	manager := newTestRefreshManager()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := manager.Issue(ctx, "76561198000000001")
		require.NoError(t, err)
		_, dup := seen[token.Token]
		require.False(t, dup)
		seen[token.Token] = struct{}{}
	}
}
