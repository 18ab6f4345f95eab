package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/games"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GAME DETAILS QUERY
// One game's detail page: store metadata, the achievement list with
// the caller's unlock state and global percentages, and the current
// player count. The schema and store fetches are hard dependencies;
// the remaining decorations degrade independently.
// ══════════════════════════════════════════════════════════════════════════════

const defaultLang = "english"

// GetGameDetailsQuery contains the game details request parameters.
type GetGameDetailsQuery struct {
	// SteamID is the authenticated caller's 64-bit Steam ID.
	SteamID string

	// AppID is the application to describe.
	AppID int

	// Lang selects schema and store localization; defaults to english.
	Lang string
}

// Validate checks and normalizes the request parameters.
func (q *GetGameDetailsQuery) Validate() error {
	if q.SteamID == "" {
		return shared.ErrEmptySteamID
	}
	if q.AppID <= 0 {
		return fmt.Errorf("%w: app id must be positive", shared.ErrInvalidInput)
	}
	if q.Lang == "" {
		q.Lang = defaultLang
	}
	return nil
}

// GetGameDetailsHandler executes the game details query.
type GetGameDetailsHandler struct {
	gateway SteamGateway
	store   StoreGateway
	logger  *logger.Logger
}

// NewGetGameDetailsHandler creates the handler.
func NewGetGameDetailsHandler(gateway SteamGateway, store StoreGateway, log *logger.Logger) *GetGameDetailsHandler {
	return &GetGameDetailsHandler{
		gateway: gateway,
		store:   store,
		logger:  log.With(logger.Operation("get_game_details")),
	}
}

// Handle assembles the detail view. The schema and store fetches are
// hard dependencies: either failing fails the query. A delisted app is
// not a store failure; it yields no metadata and the page renders from
// the schema alone. Unlock states, global percentages and the player
// count are fetched concurrently and dropped on failure.
func (h *GetGameDetailsHandler) Handle(ctx context.Context, q GetGameDetailsQuery) (*games.Details, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	schema, err := h.gateway.GameSchema(ctx, q.AppID, q.Lang)
	if err != nil {
		return nil, shared.Dependency("get_game_details schema", err)
	}

	var (
		unlocks  map[string]games.UnlockState
		percents map[string]float64
		players  *int
		store    *games.Details
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		states, err := h.gateway.PlayerAchievements(gctx, q.SteamID, q.AppID, q.Lang)
		if err != nil {
			h.logger.Debug("unlock states unavailable", logger.AppID(q.AppID), logger.Err(err))
			return nil
		}
		unlocks = states
		return nil
	})
	g.Go(func() error {
		pct, err := h.gateway.GlobalAchievementPercentages(gctx, q.AppID)
		if err != nil {
			h.logger.Debug("global percentages unavailable", logger.AppID(q.AppID), logger.Err(err))
			return nil
		}
		percents = pct
		return nil
	})
	g.Go(func() error {
		count, err := h.gateway.CurrentPlayers(gctx, q.AppID)
		if err != nil {
			h.logger.Debug("player count unavailable", logger.AppID(q.AppID), logger.Err(err))
			return nil
		}
		players = count
		return nil
	})
	g.Go(func() error {
		details, err := h.store.AppDetails(gctx, q.AppID, q.Lang)
		if err != nil {
			return shared.Dependency("get_game_details store", err)
		}
		store = details
		return nil
	})
	// A store failure or cancellation surfaces here; the decoration
	// fetches absorb their own failures.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	details := &games.Details{AppID: q.AppID}
	if store != nil {
		*details = *store
		details.AppID = q.AppID
	}
	if details.Name == "" {
		details.Name = schema.GameName
	}
	details.CurrentPlayers = players
	details.Achievements = mergeAchievements(schema.Achievements, unlocks, percents)

	return details, nil
}

// mergeAchievements joins schema definitions with the caller's unlock
// states and global percentages. Unlocked achievements sort first, by
// unlock time descending; locked ones follow alphabetically.
func mergeAchievements(
	defs []games.SchemaAchievement,
	unlocks map[string]games.UnlockState,
	percents map[string]float64,
) []games.Achievement {
	merged := make([]games.Achievement, 0, len(defs))
	for _, def := range defs {
		a := games.Achievement{
			APIName:     def.Name,
			DisplayName: def.DisplayName,
			Description: def.Description,
			Icon:        def.Icon,
			IconGray:    def.IconGray,
		}
		if state, ok := unlocks[def.Name]; ok {
			a.Achieved = state.Achieved
			a.UnlockTime = timeutil.FromUnixPtr(state.UnlockTime)
		}
		if pct, ok := percents[def.Name]; ok {
			p := pct
			a.GlobalPercent = &p
		}
		merged = append(merged, a)
	}

	slices.SortStableFunc(merged, func(a, b games.Achievement) int {
		if a.Achieved != b.Achieved {
			if a.Achieved {
				return -1
			}
			return 1
		}
		if a.Achieved && a.UnlockTime != nil && b.UnlockTime != nil && !a.UnlockTime.Equal(*b.UnlockTime) {
			if a.UnlockTime.After(*b.UnlockTime) {
				return -1
			}
			return 1
		}
		return strings.Compare(
			strings.ToLower(displayOrAPI(a)),
			strings.ToLower(displayOrAPI(b)),
		)
	})
	return merged
}

func displayOrAPI(a games.Achievement) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.APIName
}
