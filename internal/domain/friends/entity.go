// Package friends contains the domain model for the friends-list and
// friends-leaderboard features: relationship edges from the Steam friend
// graph, resolved player summaries, per-friend playtime metrics, and the
// assembled result DTOs served to the SPA.
package friends

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/gametime-hub/steam-gametime-hub/pkg/timeutil"
)

// Edge is one relationship in the authenticated user's friend graph.
// Steam reports at most the friend's ID and when the friendship formed.
type Edge struct {
	// SteamID is the friend's 64-bit Steam ID, kept as an opaque string.
	SteamID string

	// Since is when the friendship was created, when Steam reports it.
	Since *time.Time
}

// ProfileSummary is a batch-resolvable public identity record.
// Friends whose summary cannot be resolved (fully private accounts)
// produce no row anywhere: a row needs at least a name to render.
type ProfileSummary struct {
	SteamID                  string
	PersonaName              string
	AvatarSmall              string
	AvatarMedium             string
	AvatarFull               string
	CountryCode              string
	CommunityVisibilityState int
	PersonaState             *int
	TimeCreated              *time.Time
	LastLogOff               *time.Time

	// GameID and GameName describe the game the player is currently in,
	// when public.
	GameID   string
	GameName string
}

// UsageMetric is the per-player playtime readout, optionally scoped to
// one app. Available=false is a first-class outcome meaning Steam
// denied or failed the lookup (private games list, transient error);
// it is never surfaced as an error.
type UsageMetric struct {
	// TotalMinutes is lifetime playtime: for one app in scoped mode,
	// summed across the library in total mode.
	TotalMinutes int64

	// RecentMinutes is two-week playtime. Only populated in scoped
	// mode; total-library mode intentionally leaves it nil.
	RecentMinutes *int64

	// Available reports whether the upstream lookup succeeded.
	Available bool
}

// LeaderboardRow is one ranked friend in the hours leaderboard.
// Field names and JSON shape match what the SPA renders. The hour
// fields carry unrounded values in memory; MarshalJSON rounds them to
// one decimal, so ranking compares true playtime while the wire shape
// stays what the SPA expects.
type LeaderboardRow struct {
	SteamID64    string   `json:"steamId64"`
	PersonaName  string   `json:"personaName"`
	AvatarMedium string   `json:"avatarMedium"`
	IsYou        bool     `json:"isYou"`
	HoursTotal   float64  `json:"hoursTotal"`
	Hours2Weeks  *float64 `json:"hours2Weeks,omitempty"`

	// PrivateOrUnavailable is true when the playtime lookup failed for
	// this friend; such rows always carry zero hours.
	PrivateOrUnavailable bool `json:"privateOrUnavailable"`
}

// MarshalJSON renders the hour fields rounded to one decimal.
func (r LeaderboardRow) MarshalJSON() ([]byte, error) {
	type row LeaderboardRow
	out := row(r)
	out.HoursTotal = timeutil.RoundHours(out.HoursTotal)
	if out.Hours2Weeks != nil {
		recent := timeutil.RoundHours(*out.Hours2Weeks)
		out.Hours2Weeks = &recent
	}
	return json.Marshal(out)
}

// Leaderboard is the assembled, ordered leaderboard result.
type Leaderboard struct {
	// AppID is the app the ranking is scoped to; nil means total
	// library hours.
	AppID *int             `json:"appId,omitempty"`
	Rows  []LeaderboardRow `json:"rows"`
}

// SummaryRow is one friend in the plain friends list (no hours).
type SummaryRow struct {
	SteamID64                string     `json:"steamId64"`
	PersonaName              string     `json:"personaName"`
	AvatarSmall              string     `json:"avatarSmall,omitempty"`
	AvatarMedium             string     `json:"avatarMedium,omitempty"`
	AvatarFull               string     `json:"avatarFull,omitempty"`
	PersonaState             *int       `json:"personaState,omitempty"`
	CommunityVisibilityState int        `json:"communityVisibilityState"`
	FriendSinceUTC           *time.Time `json:"friendSinceUtc,omitempty"`
	SteamLevel               *int       `json:"steamLevel,omitempty"`
	IsYou                    bool       `json:"isYou"`
	GameID                   string     `json:"gameId,omitempty"`
	GameName                 string     `json:"gameName,omitempty"`
}

// List is the assembled, ordered friends list result.
type List struct {
	Rows []SummaryRow `json:"rows"`
}
