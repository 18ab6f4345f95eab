package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/internal/metrics"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/rategate"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET FRIENDS LIST QUERY
// The plain friends list: persona, avatars, friendship date, Steam
// level and online state. No playtime aggregation happens here.
// ══════════════════════════════════════════════════════════════════════════════

// GetFriendsListQuery contains the friends list request parameters.
type GetFriendsListQuery struct {
	// SteamID is the authenticated caller's 64-bit Steam ID.
	SteamID string

	// IncludeSelf adds the caller's own row at the top of the list.
	IncludeSelf bool
}

// Validate checks the request parameters.
func (q *GetFriendsListQuery) Validate() error {
	if q.SteamID == "" {
		return shared.ErrEmptySteamID
	}
	return nil
}

// GetFriendsListHandler executes the friends list query.
type GetFriendsListHandler struct {
	gateway SteamGateway
	cache   StatCache
	gate    *rategate.Gate
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewGetFriendsListHandler creates the handler. The gate here bounds
// level lookups, which hit a different endpoint family than playtime,
// so it is a separate gate from the leaderboard's.
func NewGetFriendsListHandler(
	gateway SteamGateway,
	cache StatCache,
	gate *rategate.Gate,
	log *logger.Logger,
	m *metrics.Metrics,
) *GetFriendsListHandler {
	return &GetFriendsListHandler{
		gateway: gateway,
		cache:   cache,
		gate:    gate,
		logger:  log.With(logger.Operation("get_friends_list")),
		metrics: m,
	}
}

// Handle builds the friends list. Graph and summaries are hard
// dependencies; a failed level lookup only costs that row its level.
func (h *GetFriendsListHandler) Handle(ctx context.Context, q GetFriendsListQuery) (*friends.List, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	edges, err := h.gateway.FriendList(ctx, q.SteamID)
	if err != nil {
		return nil, shared.Dependency("get_friends_list friend graph", err)
	}

	sinceByID := make(map[string]friends.Edge, len(edges))
	ids := make([]string, 0, len(edges)+1)
	for _, e := range edges {
		if e.SteamID == "" || e.SteamID == q.SteamID {
			continue
		}
		if _, dup := sinceByID[e.SteamID]; dup {
			continue
		}
		sinceByID[e.SteamID] = e
		ids = append(ids, e.SteamID)
	}
	if q.IncludeSelf {
		ids = append(ids, q.SteamID)
	}

	summaries, err := h.gateway.PlayerSummaries(ctx, ids)
	if err != nil {
		return nil, shared.Dependency("get_friends_list summaries", err)
	}

	rows := make([]friends.SummaryRow, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range summaries {
		i, s := i, s
		g.Go(func() error {
			level, err := h.lookupLevel(gctx, s.SteamID)
			if err != nil {
				return err
			}
			row := friends.SummaryRow{
				SteamID64:                s.SteamID,
				PersonaName:              s.PersonaName,
				AvatarSmall:              s.AvatarSmall,
				AvatarMedium:             s.AvatarMedium,
				AvatarFull:               s.AvatarFull,
				PersonaState:             s.PersonaState,
				CommunityVisibilityState: s.CommunityVisibilityState,
				SteamLevel:               level,
				IsYou:                    s.SteamID == q.SteamID,
				GameID:                   s.GameID,
				GameName:                 s.GameName,
			}
			if edge, ok := sinceByID[s.SteamID]; ok {
				row.FriendSinceUTC = edge.Since
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	friends.SortList(rows)

	h.logger.Debug("friends list assembled",
		logger.SteamID(q.SteamID), logger.FriendCount(len(rows)))
	return &friends.List{Rows: rows}, nil
}

// lookupLevel reads the Steam level through the cache. The cache is
// checked before a gate permit is taken: a warm list costs zero
// permits. Upstream failures are absorbed into a nil level and cached
// briefly so the next page load retries soon but not immediately.
func (h *GetFriendsListHandler) lookupLevel(ctx context.Context, steamID string) (*int, error) {
	key := levelKey(steamID)
	if level, ok := h.cache.GetLevel(ctx, key); ok {
		h.metrics.CacheHit("level")
		return level, nil
	}
	h.metrics.CacheMiss("level")

	var level *int
	err := h.gate.Do(ctx, func() error {
		fetched, err := h.gateway.PlayerLevel(ctx, steamID)
		if err != nil {
			h.logger.Debug("level lookup failed", logger.SteamID(steamID), logger.Err(err))
			h.cache.SetLevel(ctx, key, nil, LevelFailureTTL)
			return nil
		}
		level = fetched
		h.cache.SetLevel(ctx, key, fetched, LevelTTL)
		return nil
	})
	if err != nil {
		// Only a cancelled context reaches here.
		return nil, err
	}
	return level, nil
}
