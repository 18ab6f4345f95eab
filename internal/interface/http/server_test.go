package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gametime-hub/steam-gametime-hub/internal/application/query"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/games"
	"github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/auth"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/rategate"
)

// stubGateway serves a fixed two-friend world.
type stubGateway struct {
	failFriendList bool
}

func (g *stubGateway) FriendList(context.Context, string) ([]friends.Edge, error) {
	if g.failFriendList {
		return nil, errors.New("steam down")
	}
	return []friends.Edge{{SteamID: "f1"}, {SteamID: "f2"}}, nil
}

func (g *stubGateway) PlayerSummaries(_ context.Context, ids []string) ([]friends.ProfileSummary, error) {
	out := make([]friends.ProfileSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, friends.ProfileSummary{SteamID: id, PersonaName: "p-" + id})
	}
	return out, nil
}

func (g *stubGateway) UsageMetric(context.Context, string, *int) friends.UsageMetric {
	return friends.UsageMetric{TotalMinutes: 60, Available: true}
}

func (g *stubGateway) PlayerLevel(context.Context, string) (*int, error) { return nil, nil }

func (g *stubGateway) OwnedGames(context.Context, string) ([]games.LibraryGame, error) {
	return []games.LibraryGame{{AppID: 440, Name: "Team Fortress 2", PlaytimeMinutes: 600}}, nil
}

func (g *stubGateway) RecentMinutes(context.Context, string) (map[int]int64, error) {
	return nil, nil
}

func (g *stubGateway) GameSchema(context.Context, int, string) (*games.Schema, error) {
	return &games.Schema{GameName: "Team Fortress 2"}, nil
}

func (g *stubGateway) PlayerAchievements(context.Context, string, int, string) (map[string]games.UnlockState, error) {
	return nil, nil
}

func (g *stubGateway) GlobalAchievementPercentages(context.Context, int) (map[string]float64, error) {
	return nil, nil
}

func (g *stubGateway) CurrentPlayers(context.Context, int) (*int, error) { return nil, nil }

type stubStore struct{}

func (stubStore) AppDetails(context.Context, int, string) (*games.Details, error) {
	return nil, nil
}

func newTestServer(t *testing.T, gw query.SteamGateway) *Server {
	t.Helper()

	log := logger.New(logger.Options{Level: logger.LevelError})
	cache := query.NewMemoryStatCache()
	tokens, err := auth.NewTokenService(auth.DefaultTokenConfig("test-secret"))
	require.NoError(t, err)

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.CookieSecure = false
	config.DevLoginEnabled = true
	config.EnableMetrics = false

	return NewServer(config, Dependencies{
		Leaderboard: query.NewGetLeaderboardHandler(gw, cache, rategate.MustNew(8), log, nil),
		FriendsList: query.NewGetFriendsListHandler(gw, cache, rategate.MustNew(8), log, nil),
		Profile:     query.NewGetProfileHandler(gw, cache, rategate.MustNew(8), log, nil),
		Games:       query.NewGetGamesHandler(gw, log),
		GameDetails: query.NewGetGameDetailsHandler(gw, stubStore{}, log),
		Tokens:      tokens,
		Refresh:     auth.NewRefreshManager(auth.NewMemoryRefreshStore(), auth.DefaultRefreshConfig()),
		Logger:      log,
	})
}

func devLogin(t *testing.T, server *Server, steamID string) (accessToken string, refreshCookie *http.Cookie) {
	t.Helper()

	body := strings.NewReader(`{"steamId64":"` + steamID + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/steam/dev-login", body)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		AccessToken string `json:"accessToken"`
		SteamID64   string `json:"steamId64"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Equal(t, steamID, session.SteamID64)

	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			refreshCookie = c
		}
	}
	require.NotNil(t, refreshCookie)
	return session.AccessToken, refreshCookie
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, &stubGateway{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRejectsMissingToken(t *testing.T) {
	server := newTestServer(t, &stubGateway{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/steam/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIRejectsGarbageToken(t *testing.T) {
	server := newTestServer(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/steam/profile", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLeaderboardEndToEnd(t *testing.T) {
	server := newTestServer(t, &stubGateway{})
	token, _ := devLogin(t, server, "76561198000000001")

	req := httptest.NewRequest(http.MethodGet, "/api/steam/friends/leaderboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var board friends.Leaderboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board.Rows, 3)

	you := 0
	for _, row := range board.Rows {
		if row.IsYou {
			you++
			assert.Equal(t, "76561198000000001", row.SteamID64)
		}
	}
	assert.Equal(t, 1, you)
}

func TestLeaderboardRejectsBadAppID(t *testing.T) {
	server := newTestServer(t, &stubGateway{})
	token, _ := devLogin(t, server, "76561198000000001")

	req := httptest.NewRequest(http.MethodGet, "/api/steam/friends/leaderboard?appid=abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboardUpstreamFailureMapsTo502(t *testing.T) {
	server := newTestServer(t, &stubGateway{failFriendList: true})
	token, _ := devLogin(t, server, "76561198000000001")

	req := httptest.NewRequest(http.MethodGet, "/api/steam/friends/leaderboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGamesEndpoint(t *testing.T) {
	server := newTestServer(t, &stubGateway{})
	token, _ := devLogin(t, server, "76561198000000001")

	req := httptest.NewRequest(http.MethodGet, "/api/steam/games?sort=name&pageSize=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var page games.Page[games.GameHours]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 10.0, page.Items[0].HoursTotal)
}

func TestGameDetailsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubGateway{})
	token, _ := devLogin(t, server, "76561198000000001")

	req := httptest.NewRequest(http.MethodGet, "/api/steam/games/440/gamedetails", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var details games.Details
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, 440, details.AppID)
	assert.Equal(t, "Team Fortress 2", details.Name)
}

func TestRefreshRotatesCookie(t *testing.T) {
	server := newTestServer(t, &stubGateway{})
	_, cookie := devLogin(t, server, "76561198000000001")

	req := httptest.NewRequest(http.MethodPost, "/auth/steam/refresh", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			rotated = c
		}
	}
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	// The old cookie must be dead after rotation.
	replay := httptest.NewRequest(http.MethodPost, "/auth/steam/refresh", nil)
	replay.AddCookie(cookie)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, replay)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshWithoutCookie(t *testing.T) {
	server := newTestServer(t, &stubGateway{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/steam/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutIsIdempotent(t *testing.T) {
	server := newTestServer(t, &stubGateway{})
	_, cookie := devLogin(t, server, "76561198000000001")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/steam/logout", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	server := newTestServer(t, &stubGateway{})
	token, _ := devLogin(t, server, "76561198000000001")

	req := httptest.NewRequest(http.MethodGet, "/auth/steam/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "76561198000000001", body["steamId64"])
}
