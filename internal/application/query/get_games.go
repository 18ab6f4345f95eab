package query

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/games"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GAMES QUERY
// The caller's own library: searchable, sortable, paginated. Playtime
// comes back in hours with the two-week readout merged in.
// ══════════════════════════════════════════════════════════════════════════════

// Sort fields accepted by the games listing. A field may carry an
// ":asc" or ":desc" suffix; hours default to descending, names to
// ascending.
const (
	SortByName        = "name"
	SortByHoursTotal  = "hoursTotal"
	SortByHours2Weeks = "hours2w"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetGamesQuery contains the games listing request parameters.
type GetGamesQuery struct {
	// SteamID is the authenticated caller's 64-bit Steam ID.
	SteamID string

	// Q filters by case-insensitive substring match on the game name.
	Q string

	// Sort is the sort spec, e.g. "hoursTotal" or "name:asc".
	Sort string

	// Page is 1-based.
	Page int

	// PageSize caps at 100; zero means the default of 20.
	PageSize int
}

// Validate checks and normalizes the request parameters.
func (q *GetGamesQuery) Validate() error {
	if q.SteamID == "" {
		return shared.ErrEmptySteamID
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.Sort == "" {
		q.Sort = SortByHoursTotal
	}
	field, _, _ := strings.Cut(q.Sort, ":")
	switch field {
	case SortByName, SortByHoursTotal, SortByHours2Weeks:
	default:
		return fmt.Errorf("%w: unknown sort field %q", shared.ErrInvalidInput, field)
	}
	return nil
}

// GetGamesHandler executes the games listing query.
type GetGamesHandler struct {
	gateway SteamGateway
	logger  *logger.Logger
}

// NewGetGamesHandler creates the handler. The listing is two upstream
// calls for the caller only, so it needs neither gate nor stat cache.
func NewGetGamesHandler(gateway SteamGateway, log *logger.Logger) *GetGamesHandler {
	return &GetGamesHandler{
		gateway: gateway,
		logger:  log.With(logger.Operation("get_games")),
	}
}

// Handle builds one page of the library. The owned-games fetch is the
// hard dependency; a failed two-week readout only blanks that column.
func (h *GetGamesHandler) Handle(ctx context.Context, q GetGamesQuery) (*games.Page[games.GameHours], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	library, err := h.gateway.OwnedGames(ctx, q.SteamID)
	if err != nil {
		return nil, shared.Dependency("get_games library", err)
	}

	recent, err := h.gateway.RecentMinutes(ctx, q.SteamID)
	if err != nil {
		h.logger.Debug("two-week readout failed", logger.SteamID(q.SteamID), logger.Err(err))
		recent = nil
	}

	needle := strings.ToLower(strings.TrimSpace(q.Q))
	rows := make([]games.GameHours, 0, len(library))
	for _, g := range library {
		if needle != "" && !strings.Contains(strings.ToLower(g.Name), needle) {
			continue
		}
		rows = append(rows, games.GameHours{
			AppID:       g.AppID,
			Name:        g.Name,
			HoursTotal:  timeutil.RoundHours(timeutil.MinutesToHours(g.PlaytimeMinutes)),
			Hours2Weeks: timeutil.RoundHours(timeutil.MinutesToHours(recent[g.AppID])),
			IconURL:     iconURL(g.AppID, g.IconHash),
		})
	}

	sortGames(rows, q.Sort)

	total := len(rows)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return &games.Page[games.GameHours]{
		Items:    rows[start:end],
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		Sort:     q.Sort,
		Q:        q.Q,
	}, nil
}

// sortGames orders rows per the sort spec, always tie-breaking on the
// lower-cased name so pagination is stable.
func sortGames(rows []games.GameHours, spec string) {
	field, dir, _ := strings.Cut(spec, ":")

	descending := dir == "desc" || (dir == "" && field != SortByName)

	slices.SortStableFunc(rows, func(a, b games.GameHours) int {
		var cmp int
		switch field {
		case SortByHoursTotal:
			cmp = compareFloat(a.HoursTotal, b.HoursTotal)
		case SortByHours2Weeks:
			cmp = compareFloat(a.Hours2Weeks, b.Hours2Weeks)
		}
		if cmp == 0 {
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			if field == SortByName && descending {
				cmp = -cmp
			}
			return cmp
		}
		if descending {
			cmp = -cmp
		}
		return cmp
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// iconURL expands Steam's icon hash into the community CDN URL. An
// empty hash yields an empty URL.
func iconURL(appID int, hash string) string {
	if hash == "" {
		return ""
	}
	return "https://media.steampowered.com/steamcommunity/public/images/apps/" +
		strconv.Itoa(appID) + "/" + hash + ".jpg"
}
