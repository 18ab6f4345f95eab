package query

import (
	"context"
	"time"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/games"
)

// SteamGateway is the upstream port the queries aggregate over.
// Implemented by the Steam Web API client; faked in tests.
type SteamGateway interface {
	// FriendList fetches the caller's friend graph.
	FriendList(ctx context.Context, steamID string) ([]friends.Edge, error)

	// PlayerSummaries batch-resolves profile summaries.
	PlayerSummaries(ctx context.Context, ids []string) ([]friends.ProfileSummary, error)

	// UsageMetric reads playtime for one player. Never errors: failure
	// comes back as Available=false.
	UsageMetric(ctx context.Context, steamID string, appID *int) friends.UsageMetric

	// PlayerLevel fetches a player's Steam level.
	PlayerLevel(ctx context.Context, steamID string) (*int, error)

	// OwnedGames fetches the full library with app info.
	OwnedGames(ctx context.Context, steamID string) ([]games.LibraryGame, error)

	// RecentMinutes maps app ID to two-week playtime minutes.
	RecentMinutes(ctx context.Context, steamID string) (map[int]int64, error)

	// GameSchema fetches achievement definitions for an app.
	GameSchema(ctx context.Context, appID int, lang string) (*games.Schema, error)

	// PlayerAchievements fetches per-user unlock states for an app.
	PlayerAchievements(ctx context.Context, steamID string, appID int, lang string) (map[string]games.UnlockState, error)

	// GlobalAchievementPercentages fetches global unlock percentages.
	GlobalAchievementPercentages(ctx context.Context, appID int) (map[string]float64, error)

	// CurrentPlayers fetches the current player count for an app.
	CurrentPlayers(ctx context.Context, appID int) (*int, error)
}

// StoreGateway fetches storefront metadata for the game-details view.
type StoreGateway interface {
	AppDetails(ctx context.Context, appID int, lang string) (*games.Details, error)
}

// StatCache is the read-through cache the aggregation queries share.
// The in-process implementation lives in this package; a Redis-backed
// one exists for multi-instance deployments. Failed lookups are cached
// too, with a shorter TTL, so a wall of private profiles cannot hammer
// the upstream on every request.
type StatCache interface {
	GetUsage(ctx context.Context, key string) (friends.UsageMetric, bool)
	SetUsage(ctx context.Context, key string, metric friends.UsageMetric, ttl time.Duration)

	GetLevel(ctx context.Context, key string) (*int, bool)
	SetLevel(ctx context.Context, key string, level *int, ttl time.Duration)

	GetProfile(ctx context.Context, key string) (friends.ProfileSummary, bool)
	SetProfile(ctx context.Context, key string, summary friends.ProfileSummary, ttl time.Duration)
}
