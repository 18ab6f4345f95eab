package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/auth"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

// refreshSchema is applied on startup. The table is tiny and append
// mostly, so a single idempotent statement beats a migration framework
// here.
const refreshSchema = `
CREATE TABLE IF NOT EXISTS refresh_tokens (
	token      TEXT PRIMARY KEY,
	steam_id   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS refresh_tokens_expires_at_idx ON refresh_tokens (expires_at);
`

// RefreshRepository implements auth.RefreshStore on PostgreSQL, so
// sessions survive process restarts and are shared across instances.
type RefreshRepository struct {
	conn   *Connection
	logger *logger.Logger
}

// NewRefreshRepository ensures the schema and returns the repository.
func NewRefreshRepository(ctx context.Context, conn *Connection) (*RefreshRepository, error) {
	if _, err := conn.Exec(ctx, refreshSchema); err != nil {
		return nil, fmt.Errorf("postgres: ensure refresh schema: %w", err)
	}
	return &RefreshRepository{
		conn:   conn,
		logger: conn.logger.With(logger.Component("refresh_repo")),
	}, nil
}

// Save stores a refresh token.
func (r *RefreshRepository) Save(ctx context.Context, token auth.RefreshToken) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO refresh_tokens (token, steam_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, token.Token, token.SteamID, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres: save refresh token: %w", err)
	}
	return nil
}

// Find looks a token up. Unknown tokens map to ErrUnauthorized, same
// as the in-memory store.
func (r *RefreshRepository) Find(ctx context.Context, raw string) (auth.RefreshToken, error) {
	var token auth.RefreshToken
	err := r.conn.QueryRow(ctx, `
		SELECT token, steam_id, created_at, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`, raw).Scan(&token.Token, &token.SteamID, &token.CreatedAt, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return auth.RefreshToken{}, shared.ErrUnauthorized
		}
		return auth.RefreshToken{}, fmt.Errorf("postgres: find refresh token: %w", err)
	}
	return token, nil
}

// Delete removes a token; deleting an absent token succeeds.
func (r *RefreshRepository) Delete(ctx context.Context, raw string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, raw); err != nil {
		return fmt.Errorf("postgres: delete refresh token: %w", err)
	}
	return nil
}

// DeleteExpired purges expired tokens; called periodically from the
// composition root.
func (r *RefreshRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("postgres: purge refresh tokens: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		r.logger.Debug("purged expired refresh tokens", logger.Int64("purged", n))
		return n, nil
	}
	return 0, nil
}
