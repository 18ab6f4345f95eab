// Package steam implements the Steam Web API client.
// This package handles all communication with api.steampowered.com:
// the friend graph, batched player summaries, owned-games playtime,
// player levels, and per-game achievement data. Responses are mapped to
// domain types at this boundary; nothing upstream-shaped escapes it.
package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/games"
	"github.com/gametime-hub/steam-gametime-hub/internal/metrics"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

// summaryBatchCap is Steam's documented maximum for one
// GetPlayerSummaries call.
const summaryBatchCap = 100

// ClientConfig contains configuration for the Steam Web API client.
type ClientConfig struct {
	// APIKey is the Steam Web API key.
	APIKey string

	// BaseURL is the Web API base URL.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Breaker configures the circuit breaker around Web API calls.
	Breaker BreakerConfig

	// Logger for structured logging.
	Logger *logger.Logger

	// Metrics records upstream call outcomes; may be nil.
	Metrics *metrics.Metrics
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.steampowered.com",
		Timeout: 12 * time.Second,
		Breaker: DefaultBreakerConfig(),
	}
}

// Client is the Steam Web API client. It performs no retries: a failed
// call surfaces immediately and the caller decides whether the failure
// is fatal or absorbable.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *logger.Logger
	metrics    *metrics.Metrics
	breaker    *breaker
}

// NewClient creates a new Steam Web API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.steampowered.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 12 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  config.Logger.With(logger.Component("steam_client")),
		metrics: config.Metrics,
		breaker: newBreaker(config.Breaker),
	}
}

// FriendList fetches the caller's friend graph. A failure here is fatal
// to any aggregation built on top of it.
func (c *Client) FriendList(ctx context.Context, steamID string) ([]friends.Edge, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("relationship", "friend")

	var resp friendListResponse
	if err := c.get(ctx, "GetFriendList", "/ISteamUser/GetFriendList/v1/", params, &resp); err != nil {
		return nil, fmt.Errorf("friend list for %s: %w", steamID, err)
	}

	if resp.FriendsList == nil {
		return nil, nil
	}
	edges := make([]friends.Edge, 0, len(resp.FriendsList.Friends))
	for _, f := range resp.FriendsList.Friends {
		edges = append(edges, f.toDomain())
	}
	return edges, nil
}

// PlayerSummaries resolves profile summaries for the given IDs, batching
// into groups of at most 100 per upstream call. One failed batch fails
// the whole operation; there is no partial-batch degrade.
func (c *Client) PlayerSummaries(ctx context.Context, ids []string) ([]friends.ProfileSummary, error) {
	all := make([]friends.ProfileSummary, 0, len(ids))

	for start := 0; start < len(ids); start += summaryBatchCap {
		end := start + summaryBatchCap
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		params := url.Values{}
		params.Set("steamids", joinIDs(chunk))

		var resp playerSummariesResponse
		if err := c.get(ctx, "GetPlayerSummaries", "/ISteamUser/GetPlayerSummaries/v2/", params, &resp); err != nil {
			return nil, fmt.Errorf("player summaries batch %d-%d: %w", start, end, err)
		}

		if resp.Response == nil {
			continue
		}
		for _, p := range resp.Response.Players {
			all = append(all, p.toDomain())
		}
	}
	return all, nil
}

// UsageMetric fetches playtime for one player, scoped to appID when set.
// This is the boundary where partial failure is absorbed: any upstream
// error yields Available=false instead of propagating, so one private
// profile never takes down a whole leaderboard.
func (c *Client) UsageMetric(ctx context.Context, steamID string, appID *int) friends.UsageMetric {
	if appID != nil {
		return c.usageForApp(ctx, steamID, *appID)
	}
	return c.usageTotal(ctx, steamID)
}

// usageForApp reads playtime for a single app via the filtered
// owned-games endpoint (the cheap path) plus the two-week readout.
func (c *Client) usageForApp(ctx context.Context, steamID string, appID int) friends.UsageMetric {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("include_appinfo", "0")
	params.Set("appids_filter[0]", strconv.Itoa(appID))

	var owned ownedGamesResponse
	if err := c.get(ctx, "GetOwnedGames", "/IPlayerService/GetOwnedGames/v1/", params, &owned); err != nil {
		c.logger.Debug("usage fetch failed", logger.SteamID(steamID), logger.AppID(appID), logger.Err(err))
		return friends.UsageMetric{}
	}

	var totalMinutes int64
	if owned.Response != nil && len(owned.Response.Games) > 0 {
		totalMinutes = owned.Response.Games[0].PlaytimeForever
	}

	recent, err := c.recentlyPlayed(ctx, steamID)
	if err != nil {
		c.logger.Debug("recent playtime fetch failed", logger.SteamID(steamID), logger.Err(err))
		return friends.UsageMetric{}
	}

	var recentMinutes int64
	for _, g := range recent {
		if g.AppID == appID && g.Playtime2Weeks != nil {
			recentMinutes = *g.Playtime2Weeks
			break
		}
	}

	return friends.UsageMetric{
		TotalMinutes:  totalMinutes,
		RecentMinutes: &recentMinutes,
		Available:     true,
	}
}

// usageTotal sums lifetime playtime across the whole library (the
// expensive path). Two-week minutes are not computed in this mode.
func (c *Client) usageTotal(ctx context.Context, steamID string) friends.UsageMetric {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("include_appinfo", "0")

	var owned ownedGamesResponse
	if err := c.get(ctx, "GetOwnedGames", "/IPlayerService/GetOwnedGames/v1/", params, &owned); err != nil {
		c.logger.Debug("usage fetch failed", logger.SteamID(steamID), logger.Err(err))
		return friends.UsageMetric{}
	}

	var totalMinutes int64
	if owned.Response != nil {
		for _, g := range owned.Response.Games {
			totalMinutes += g.PlaytimeForever
		}
	}

	return friends.UsageMetric{TotalMinutes: totalMinutes, Available: true}
}

// PlayerLevel fetches a player's Steam level. Levels can be hidden, so
// the result is optional even on success.
func (c *Client) PlayerLevel(ctx context.Context, steamID string) (*int, error) {
	params := url.Values{}
	params.Set("steamid", steamID)

	var resp steamLevelResponse
	if err := c.get(ctx, "GetSteamLevel", "/IPlayerService/GetSteamLevel/v1/", params, &resp); err != nil {
		return nil, fmt.Errorf("steam level for %s: %w", steamID, err)
	}

	if resp.Response == nil {
		return nil, nil
	}
	return resp.Response.PlayerLevel, nil
}

// OwnedGames fetches the full library with app info, for the games
// listing.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]games.LibraryGame, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")

	var resp ownedGamesResponse
	if err := c.get(ctx, "GetOwnedGames", "/IPlayerService/GetOwnedGames/v1/", params, &resp); err != nil {
		return nil, fmt.Errorf("owned games for %s: %w", steamID, err)
	}

	if resp.Response == nil {
		return nil, nil
	}
	library := make([]games.LibraryGame, 0, len(resp.Response.Games))
	for _, g := range resp.Response.Games {
		library = append(library, games.LibraryGame{
			AppID:           g.AppID,
			Name:            g.Name,
			PlaytimeMinutes: g.PlaytimeForever,
			IconHash:        g.ImgIconURL,
		})
	}
	return library, nil
}

// RecentMinutes maps app ID to two-week playtime minutes.
func (c *Client) RecentMinutes(ctx context.Context, steamID string) (map[int]int64, error) {
	recent, err := c.recentlyPlayed(ctx, steamID)
	if err != nil {
		return nil, fmt.Errorf("recently played for %s: %w", steamID, err)
	}

	byApp := make(map[int]int64, len(recent))
	for _, g := range recent {
		if g.Playtime2Weeks != nil {
			byApp[g.AppID] = *g.Playtime2Weeks
		}
	}
	return byApp, nil
}

func (c *Client) recentlyPlayed(ctx context.Context, steamID string) ([]recentGameDTO, error) {
	params := url.Values{}
	params.Set("steamid", steamID)

	var resp recentlyPlayedResponse
	if err := c.get(ctx, "GetRecentlyPlayedGames", "/IPlayerService/GetRecentlyPlayedGames/v1/", params, &resp); err != nil {
		return nil, err
	}
	if resp.Response == nil {
		return nil, nil
	}
	return resp.Response.Games, nil
}

// GameSchema fetches achievement definitions for an app. A failure here
// is fatal to the game-details view.
func (c *Client) GameSchema(ctx context.Context, appID int, lang string) (*games.Schema, error) {
	params := url.Values{}
	params.Set("appid", strconv.Itoa(appID))
	params.Set("l", lang)

	var resp schemaForGameResponse
	if err := c.get(ctx, "GetSchemaForGame", "/ISteamUserStats/GetSchemaForGame/v2/", params, &resp); err != nil {
		return nil, fmt.Errorf("schema for app %d: %w", appID, err)
	}

	schema := &games.Schema{}
	if resp.Game == nil {
		return schema, nil
	}
	schema.GameName = resp.Game.GameName
	if resp.Game.AvailableGameStats != nil {
		for _, a := range resp.Game.AvailableGameStats.Achievements {
			schema.Achievements = append(schema.Achievements, games.SchemaAchievement{
				Name:        a.Name,
				DisplayName: a.DisplayName,
				Description: a.Description,
				Icon:        a.Icon,
				IconGray:    a.IconGray,
			})
		}
	}
	return schema, nil
}

// PlayerAchievements fetches per-user unlock states for an app.
// Steam answers 400/401/403 for private profiles or games without
// stats; those cases are absorbed into a nil map, not an error.
func (c *Client) PlayerAchievements(ctx context.Context, steamID string, appID int, lang string) (map[string]games.UnlockState, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("appid", strconv.Itoa(appID))
	params.Set("l", lang)

	var resp playerAchievementsResponse
	err := c.get(ctx, "GetPlayerAchievements", "/ISteamUserStats/GetPlayerAchievements/v1/", params, &resp)
	if err != nil {
		if IsKind(err, KindDenied) || IsKind(err, KindMalformed) {
			c.logger.Debug("player achievements unavailable",
				logger.SteamID(steamID), logger.AppID(appID), logger.Err(err))
			return nil, nil
		}
		return nil, fmt.Errorf("player achievements for %s app %d: %w", steamID, appID, err)
	}

	if resp.PlayerStats == nil || !resp.PlayerStats.Success {
		return nil, nil
	}
	states := make(map[string]games.UnlockState, len(resp.PlayerStats.Achievements))
	for _, a := range resp.PlayerStats.Achievements {
		states[a.APIName] = games.UnlockState{
			Achieved:   a.Achieved == 1,
			UnlockTime: a.UnlockTime,
		}
	}
	return states, nil
}

// GlobalAchievementPercentages fetches global unlock percentages for an
// app. Missing or restricted data is absorbed into a nil map.
func (c *Client) GlobalAchievementPercentages(ctx context.Context, appID int) (map[string]float64, error) {
	params := url.Values{}
	params.Set("gameid", strconv.Itoa(appID))

	var resp globalPercentResponse
	err := c.get(ctx, "GetGlobalAchievementPercentagesForApp",
		"/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2/", params, &resp)
	if err != nil {
		if IsKind(err, KindDenied) || IsKind(err, KindMalformed) {
			return nil, nil
		}
		return nil, fmt.Errorf("global percentages for app %d: %w", appID, err)
	}

	if resp.AchievementPercentages == nil {
		return nil, nil
	}
	percents := make(map[string]float64, len(resp.AchievementPercentages.Achievements))
	for _, a := range resp.AchievementPercentages.Achievements {
		percents[a.Name] = a.Percent
	}
	return percents, nil
}

// CurrentPlayers fetches the current player count for an app. Any
// upstream refusal is treated as "no data".
func (c *Client) CurrentPlayers(ctx context.Context, appID int) (*int, error) {
	params := url.Values{}
	params.Set("appid", strconv.Itoa(appID))

	var resp currentPlayersResponse
	err := c.get(ctx, "GetNumberOfCurrentPlayers", "/ISteamUserStats/GetNumberOfCurrentPlayers/v1/", params, &resp)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Kind != KindTimeout {
			return nil, nil
		}
		return nil, fmt.Errorf("current players for app %d: %w", appID, err)
	}

	if resp.Response == nil {
		return nil, nil
	}
	return resp.Response.PlayerCount, nil
}

// get performs one Web API call with classification, circuit breaking
// and metrics. The API key is appended here so individual call sites
// never handle it.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if err := c.breaker.allow(); err != nil {
		c.record(endpoint, "circuit_open")
		return err
	}

	params.Set("key", c.config.APIKey)
	fullURL := c.config.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		serr := classifyTransport(endpoint, err)
		c.afterCall(endpoint, serr)
		return serr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		serr := classifyTransport(endpoint, err)
		c.afterCall(endpoint, serr)
		return serr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := classifyStatus(endpoint, resp.StatusCode)
		c.afterCall(endpoint, serr)
		return serr
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			serr := &Error{Kind: KindMalformed, Endpoint: endpoint, Err: err}
			c.afterCall(endpoint, serr)
			return serr
		}
	}

	c.breaker.recordSuccess()
	c.record(endpoint, "ok")
	c.logger.Debug("steam api call",
		logger.Endpoint(endpoint), logger.Latency(time.Since(start)))
	return nil
}

// afterCall feeds the breaker and metrics after a failed call. Only
// infrastructure failures trip the breaker; a denied or malformed
// response counts as Steam answering. A 429 is neutral: it neither
// trips the circuit nor clears accumulated failures, and it never
// closes a half-open circuit.
func (c *Client) afterCall(endpoint string, serr *Error) {
	c.record(endpoint, serr.Kind.String())
	switch serr.Kind {
	case KindTimeout, KindServerError:
		c.breaker.recordFailure()
	case KindRateLimited:
	default:
		c.breaker.recordSuccess()
	}
}

func (c *Client) record(endpoint, outcome string) {
	c.metrics.UpstreamRequest(endpoint, outcome)
}

func joinIDs(ids []string) string {
	switch len(ids) {
	case 0:
		return ""
	case 1:
		return ids[0]
	}
	n := len(ids) - 1
	for _, id := range ids {
		n += len(id)
	}
	buf := make([]byte, 0, n)
	buf = append(buf, ids[0]...)
	for _, id := range ids[1:] {
		buf = append(buf, ',')
		buf = append(buf, id...)
	}
	return string(buf)
}
