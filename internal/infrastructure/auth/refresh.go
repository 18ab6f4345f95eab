package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/pkg/ttlcache"
)

// RefreshToken is one opaque refresh credential. The raw token is
// 32 random bytes, base64url encoded; the server keeps no derived
// secret, only the token itself, so possession is the whole proof.
type RefreshToken struct {
	Token     string
	SteamID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RefreshStore persists refresh tokens. Implemented in memory here and
// on Postgres for deployments that must survive restarts.
type RefreshStore interface {
	Save(ctx context.Context, token RefreshToken) error
	Find(ctx context.Context, raw string) (RefreshToken, error)
	Delete(ctx context.Context, raw string) error
}

// RefreshConfig contains refresh token settings.
type RefreshConfig struct {
	// TTL is how long a refresh token lives. Rotation restarts the
	// clock: an active user never gets logged out.
	TTL time.Duration
}

// DefaultRefreshConfig returns the standard 30-day lifetime.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{TTL: 30 * 24 * time.Hour}
}

// RefreshManager issues, rotates and revokes refresh tokens on top of
// a RefreshStore.
type RefreshManager struct {
	store  RefreshStore
	config RefreshConfig
	now    func() time.Time
}

// NewRefreshManager creates the manager.
func NewRefreshManager(store RefreshStore, config RefreshConfig) *RefreshManager {
	if config.TTL <= 0 {
		config.TTL = 30 * 24 * time.Hour
	}
	return &RefreshManager{
		store:  store,
		config: config,
		now:    time.Now,
	}
}

// Issue mints a fresh token for the given Steam ID.
func (m *RefreshManager) Issue(ctx context.Context, steamID string) (RefreshToken, error) {
	if steamID == "" {
		return RefreshToken{}, shared.ErrEmptySteamID
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return RefreshToken{}, fmt.Errorf("auth: generate refresh token: %w", err)
	}

	now := m.now()
	token := RefreshToken{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		SteamID:   steamID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.TTL),
	}
	if err := m.store.Save(ctx, token); err != nil {
		return RefreshToken{}, fmt.Errorf("auth: save refresh token: %w", err)
	}
	return token, nil
}

// Rotate exchanges a valid refresh token for a new one. The old token
// is deleted first, so a replayed token fails even if the rotation
// itself then fails. Expired tokens are rejected with ErrTokenExpired.
func (m *RefreshManager) Rotate(ctx context.Context, raw string) (RefreshToken, error) {
	current, err := m.store.Find(ctx, raw)
	if err != nil {
		return RefreshToken{}, err
	}
	if m.now().After(current.ExpiresAt) {
		_ = m.store.Delete(ctx, raw)
		return RefreshToken{}, shared.ErrTokenExpired
	}
	if err := m.store.Delete(ctx, raw); err != nil {
		return RefreshToken{}, fmt.Errorf("auth: invalidate refresh token: %w", err)
	}
	return m.Issue(ctx, current.SteamID)
}

// Revoke deletes a refresh token. Revoking an unknown token is not an
// error: logout must be idempotent.
func (m *RefreshManager) Revoke(ctx context.Context, raw string) error {
	return m.store.Delete(ctx, raw)
}

// MemoryRefreshStore is the in-process RefreshStore, built on the TTL
// cache so expired tokens vanish on their own.
type MemoryRefreshStore struct {
	tokens *ttlcache.Cache[RefreshToken]
}

// NewMemoryRefreshStore creates an in-process store.
func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{tokens: ttlcache.New[RefreshToken]()}
}

// StartJanitor starts the background sweep.
func (s *MemoryRefreshStore) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	s.tokens.StartJanitor(interval, stop)
}

func (s *MemoryRefreshStore) Save(_ context.Context, token RefreshToken) error {
	s.tokens.Set(token.Token, token, time.Until(token.ExpiresAt))
	return nil
}

func (s *MemoryRefreshStore) Find(_ context.Context, raw string) (RefreshToken, error) {
	token, ok := s.tokens.Get(raw)
	if !ok {
		return RefreshToken{}, shared.ErrUnauthorized
	}
	return token, nil
}

func (s *MemoryRefreshStore) Delete(_ context.Context, raw string) error {
	s.tokens.Delete(raw)
	return nil
}
