// Package auth implements session management for the SPA: short-lived
// HS256 access tokens carrying the Steam ID, and long-lived rotating
// refresh tokens held in an http-only cookie. Steam itself never hands
// out credentials, so identity proved once via OpenID is carried by
// these tokens from then on.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
)

// hkdfInfo domain-separates the signing key from any other key derived
// from the same application secret.
const hkdfInfo = "gametime-hub/access-token-signing/v1"

// TokenConfig contains access token settings.
type TokenConfig struct {
	// Secret is the application secret the signing key derives from.
	Secret string

	// Issuer is the iss claim.
	Issuer string

	// Audience is the aud claim.
	Audience string

	// AccessTTL is how long an access token lives.
	AccessTTL time.Duration
}

// DefaultTokenConfig returns sensible defaults for everything except
// the secret, which has no sensible default.
func DefaultTokenConfig(secret string) TokenConfig {
	return TokenConfig{
		Secret:    secret,
		Issuer:    "gametime-hub",
		Audience:  "gametime-hub-spa",
		AccessTTL: 7 * 24 * time.Hour,
	}
}

// TokenService issues and verifies access tokens.
type TokenService struct {
	config TokenConfig
	key    []byte
	now    func() time.Time
}

// NewTokenService derives the HS256 signing key from the configured
// secret via HKDF and returns a ready service.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if config.Secret == "" {
		return nil, errors.New("auth: secret must not be empty")
	}
	if config.AccessTTL <= 0 {
		config.AccessTTL = 7 * 24 * time.Hour
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(config.Secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("auth: derive signing key: %w", err)
	}

	return &TokenService{
		config: config,
		key:    key,
		now:    time.Now,
	}, nil
}

// Issue signs an access token for the given Steam ID and returns it
// with its expiry.
func (s *TokenService) Issue(steamID string) (string, time.Time, error) {
	if steamID == "" {
		return "", time.Time{}, shared.ErrEmptySteamID
	}

	now := s.now()
	expires := now.Add(s.config.AccessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   steamID,
		Issuer:    s.config.Issuer,
		Audience:  jwt.ClaimStrings{s.config.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses and validates an access token and returns the Steam ID
// it carries. Expired tokens map to shared.ErrTokenExpired; everything
// else wrong maps to shared.ErrUnauthorized.
func (s *TokenService) Verify(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.key, nil
		},
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithAudience(s.config.Audience),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", shared.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", shared.ErrUnauthorized
	}
	return claims.Subject, nil
}
