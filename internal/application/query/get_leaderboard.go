// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response
// types. All of them aggregate over the Steam Web API through the
// SteamGateway port and degrade per friend rather than per request:
// one private profile costs one row, never the whole response.
package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/internal/metrics"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/rategate"
	"github.com/gametime-hub/steam-gametime-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Ranks the caller and all their friends by playtime: total library
// hours, or hours in one app when AppID is set. Friends whose games
// list is private still get a row, marked PrivateOrUnavailable.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// SteamID is the authenticated caller's 64-bit Steam ID.
	SteamID string

	// AppID scopes the ranking to one application; nil ranks by total
	// library hours.
	AppID *int
}

// Validate checks the request parameters.
func (q *GetLeaderboardQuery) Validate() error {
	if q.SteamID == "" {
		return shared.ErrEmptySteamID
	}
	if q.AppID != nil && *q.AppID <= 0 {
		return fmt.Errorf("%w: app id must be positive", shared.ErrInvalidInput)
	}
	return nil
}

// GetLeaderboardHandler executes the leaderboard query.
type GetLeaderboardHandler struct {
	gateway SteamGateway
	cache   StatCache
	gate    *rategate.Gate
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewGetLeaderboardHandler creates the handler. The gate bounds how
// many per-friend playtime fetches run concurrently; it is shared with
// other playtime consumers so the process-wide upstream pressure stays
// fixed no matter how many requests are in flight.
func NewGetLeaderboardHandler(
	gateway SteamGateway,
	cache StatCache,
	gate *rategate.Gate,
	log *logger.Logger,
	m *metrics.Metrics,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		gateway: gateway,
		cache:   cache,
		gate:    gate,
		logger:  log.With(logger.Operation("get_leaderboard")),
		metrics: m,
	}
}

// Handle builds the leaderboard. The friend graph and the summary
// batch are hard dependencies: if either fails the whole query fails.
// Per-friend playtime is not: each failure produces an unavailable row.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*friends.Leaderboard, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	edges, err := h.gateway.FriendList(ctx, q.SteamID)
	if err != nil {
		return nil, shared.Dependency("get_leaderboard friend graph", err)
	}

	ids := memberIDs(edges, q.SteamID)

	summaries, err := h.gateway.PlayerSummaries(ctx, ids)
	if err != nil {
		return nil, shared.Dependency("get_leaderboard summaries", err)
	}

	byID := make(map[string]friends.ProfileSummary, len(summaries))
	for _, s := range summaries {
		byID[s.SteamID] = s
	}

	// Unresolvable identities (fully private accounts) produce no row:
	// there is nothing to render without a persona name.
	members := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; ok {
			members = append(members, id)
		}
	}
	if dropped := len(ids) - len(members); dropped > 0 {
		h.logger.Debug("dropped unresolvable members", logger.RowCount(dropped))
	}

	rows := make([]friends.LeaderboardRow, len(members))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range members {
		i, id := i, id
		g.Go(func() error {
			return h.gate.Do(gctx, func() error {
				metric := h.lookupUsage(gctx, id, q.AppID)
				rows[i] = buildLeaderboardRow(byID[id], metric, id == q.SteamID)
				return nil
			})
		})
	}
	// Only cancellation can surface here; per-member failures are
	// already absorbed into their rows.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	friends.SortLeaderboard(rows)

	h.logger.Debug("leaderboard assembled",
		logger.SteamID(q.SteamID), logger.RowCount(len(rows)))
	return &friends.Leaderboard{AppID: q.AppID, Rows: rows}, nil
}

// lookupUsage is the read-through playtime lookup. Failures are cached
// too, with the shorter TTL, so retries happen on a schedule instead of
// on every page load.
func (h *GetLeaderboardHandler) lookupUsage(ctx context.Context, steamID string, appID *int) friends.UsageMetric {
	key := usageKey(steamID, appID)
	if metric, ok := h.cache.GetUsage(ctx, key); ok {
		h.metrics.CacheHit("usage")
		return metric
	}
	h.metrics.CacheMiss("usage")

	metric := h.gateway.UsageMetric(ctx, steamID, appID)
	ttl := UsageTTL
	if !metric.Available {
		ttl = UsageFailureTTL
	}
	h.cache.SetUsage(ctx, key, metric, ttl)
	return metric
}

func buildLeaderboardRow(summary friends.ProfileSummary, metric friends.UsageMetric, isYou bool) friends.LeaderboardRow {
	row := friends.LeaderboardRow{
		SteamID64:    summary.SteamID,
		PersonaName:  summary.PersonaName,
		AvatarMedium: summary.AvatarMedium,
		IsYou:        isYou,
	}
	if !metric.Available {
		row.PrivateOrUnavailable = true
		return row
	}
	// Rows carry unrounded hours so the ranking below distinguishes
	// players whose playtime rounds to the same display value.
	row.HoursTotal = timeutil.MinutesToHours(metric.TotalMinutes)
	if metric.RecentMinutes != nil {
		recent := timeutil.MinutesToHours(*metric.RecentMinutes)
		row.Hours2Weeks = &recent
	}
	return row
}

// memberIDs dedupes the friend graph and appends the caller last, so
// the caller always ranks alongside their friends.
func memberIDs(edges []friends.Edge, selfID string) []string {
	ids := make([]string, 0, len(edges)+1)
	seen := make(map[string]struct{}, len(edges)+1)
	seen[selfID] = struct{}{}
	for _, e := range edges {
		if e.SteamID == "" {
			continue
		}
		if _, dup := seen[e.SteamID]; dup {
			continue
		}
		seen[e.SteamID] = struct{}{}
		ids = append(ids, e.SteamID)
	}
	return append(ids, selfID)
}
