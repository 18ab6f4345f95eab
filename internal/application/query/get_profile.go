package query

import (
	"context"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/profile"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/internal/metrics"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/rategate"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// The caller's own profile card: summary plus Steam level. Cached as a
// whole summary so repeated page loads cost nothing upstream.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery contains the profile request parameters.
type GetProfileQuery struct {
	// SteamID is the profile to resolve, normally the caller's own.
	SteamID string
}

// Validate checks the request parameters.
func (q *GetProfileQuery) Validate() error {
	if q.SteamID == "" {
		return shared.ErrEmptySteamID
	}
	return nil
}

// GetProfileHandler executes the profile query.
type GetProfileHandler struct {
	gateway SteamGateway
	cache   StatCache
	gate    *rategate.Gate
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewGetProfileHandler creates the handler. The gate is the level
// gate shared with the friends list.
func NewGetProfileHandler(
	gateway SteamGateway,
	cache StatCache,
	gate *rategate.Gate,
	log *logger.Logger,
	m *metrics.Metrics,
) *GetProfileHandler {
	return &GetProfileHandler{
		gateway: gateway,
		cache:   cache,
		gate:    gate,
		logger:  log.With(logger.Operation("get_profile")),
		metrics: m,
	}
}

// Handle resolves the profile. A Steam ID the summary endpoint knows
// nothing about yields ErrProfileNotFound; a hidden level yields a
// profile without one.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*profile.Profile, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	summary, err := h.lookupSummary(ctx, q.SteamID)
	if err != nil {
		return nil, err
	}

	level, err := h.lookupLevel(ctx, q.SteamID)
	if err != nil {
		return nil, err
	}

	return &profile.Profile{
		SteamID64:                summary.SteamID,
		PersonaName:              summary.PersonaName,
		SteamLevel:               level,
		AvatarSmall:              summary.AvatarSmall,
		AvatarMedium:             summary.AvatarMedium,
		AvatarFull:               summary.AvatarFull,
		CountryCode:              summary.CountryCode,
		CommunityVisibilityState: summary.CommunityVisibilityState,
		PersonaState:             summary.PersonaState,
		TimeCreatedUTC:           summary.TimeCreated,
		LastLogOffUTC:            summary.LastLogOff,
	}, nil
}

func (h *GetProfileHandler) lookupSummary(ctx context.Context, steamID string) (friends.ProfileSummary, error) {
	key := profileKey(steamID)
	if summary, ok := h.cache.GetProfile(ctx, key); ok {
		h.metrics.CacheHit("profile")
		return summary, nil
	}
	h.metrics.CacheMiss("profile")

	summaries, err := h.gateway.PlayerSummaries(ctx, []string{steamID})
	if err != nil {
		return friends.ProfileSummary{}, shared.Dependency("get_profile summary", err)
	}
	if len(summaries) == 0 {
		return friends.ProfileSummary{}, shared.ErrProfileNotFound
	}

	summary := summaries[0]
	h.cache.SetProfile(ctx, key, summary, ProfileTTL)
	return summary, nil
}

func (h *GetProfileHandler) lookupLevel(ctx context.Context, steamID string) (*int, error) {
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
		return nil, err
	}
	return level, nil
}
