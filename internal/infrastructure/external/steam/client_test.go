package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultClientConfig("test-key")
	config.BaseURL = server.URL
	config.Logger = logger.New(logger.Options{Level: logger.LevelError})
	return NewClient(config), server
}

func TestFriendList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ISteamUser/GetFriendList/v1/", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "friend", r.URL.Query().Get("relationship"))
		fmt.Fprint(w, `{"friendslist":{"friends":[
			{"steamid":"76561198000000001","friend_since":1500000000},
			{"steamid":"76561198000000002"}]}}`)
	}))

	edges, err := client.FriendList(context.Background(), "76561198000000000")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "76561198000000001", edges[0].SteamID)
	require.NotNil(t, edges[0].Since)
	assert.Equal(t, int64(1500000000), edges[0].Since.Unix())
	assert.Nil(t, edges[1].Since)
}

func TestFriendListServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.FriendList(context.Background(), "76561198000000000")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindServerError))
}

func TestFriendListRateLimited(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.FriendList(context.Background(), "76561198000000000")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRateLimited))
}

func TestPlayerSummariesChunksBatches(t *testing.T) {
	var calls atomic.Int64
	var batchSizes []int

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ids := strings.Split(r.URL.Query().Get("steamids"), ",")
		batchSizes = append(batchSizes, len(ids))

		var players []string
		for _, id := range ids {
			players = append(players, fmt.Sprintf(`{"steamid":%q,"personaname":"p"}`, id))
		}
		fmt.Fprintf(w, `{"response":{"players":[%s]}}`, strings.Join(players, ","))
	}))

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("7656119800000%04d", i)
	}

	summaries, err := client.PlayerSummaries(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, summaries, 150)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, []int{100, 50}, batchSizes)
}

func TestPlayerSummariesBatchFailureFailsWhole(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"response":{"players":[{"steamid":"1","personaname":"p"}]}}`)
	}))

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%d", i)
	}

	_, err := client.PlayerSummaries(context.Background(), ids)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindServerError))
}

func TestUsageMetricScoped(t *testing.T) {
	appID := 440
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/IPlayerService/GetOwnedGames/v1/":
			assert.Equal(t, "440", r.URL.Query().Get("appids_filter[0]"))
			fmt.Fprint(w, `{"response":{"game_count":1,"games":[{"appid":440,"playtime_forever":300}]}}`)
		case "/IPlayerService/GetRecentlyPlayedGames/v1/":
			fmt.Fprint(w, `{"response":{"total_count":2,"games":[
				{"appid":730,"playtime_2weeks":999},
				{"appid":440,"playtime_2weeks":120}]}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	metric := client.UsageMetric(context.Background(), "76561198000000001", &appID)
	assert.True(t, metric.Available)
	assert.Equal(t, int64(300), metric.TotalMinutes)
	require.NotNil(t, metric.RecentMinutes)
	assert.Equal(t, int64(120), *metric.RecentMinutes)
}

func TestUsageMetricScopedUnowned(t *testing.T) {
	appID := 440
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/IPlayerService/GetOwnedGames/v1/":
			fmt.Fprint(w, `{"response":{"game_count":0,"games":[]}}`)
		default:
			fmt.Fprint(w, `{"response":{"total_count":0,"games":[]}}`)
		}
	}))

	metric := client.UsageMetric(context.Background(), "76561198000000001", &appID)
	assert.True(t, metric.Available)
	assert.Equal(t, int64(0), metric.TotalMinutes)
	require.NotNil(t, metric.RecentMinutes)
	assert.Equal(t, int64(0), *metric.RecentMinutes)
}

func TestUsageMetricTotalSumsLibrary(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/IPlayerService/GetOwnedGames/v1/", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("appids_filter[0]"))
		fmt.Fprint(w, `{"response":{"game_count":3,"games":[
			{"appid":1,"playtime_forever":60},
			{"appid":2,"playtime_forever":120},
			{"appid":3,"playtime_forever":30}]}}`)
	}))

	metric := client.UsageMetric(context.Background(), "76561198000000001", nil)
	assert.True(t, metric.Available)
	assert.Equal(t, int64(210), metric.TotalMinutes)
	assert.Nil(t, metric.RecentMinutes)
}

func TestUsageMetricAbsorbsDenied(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	metric := client.UsageMetric(context.Background(), "76561198000000001", nil)
	assert.False(t, metric.Available)
	assert.Equal(t, int64(0), metric.TotalMinutes)
	assert.Nil(t, metric.RecentMinutes)
}

func TestPlayerLevel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"player_level":42}}`)
	}))

	level, err := client.PlayerLevel(context.Background(), "76561198000000001")
	require.NoError(t, err)
	require.NotNil(t, level)
	assert.Equal(t, 42, *level)
}

func TestPlayerLevelHidden(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{}}`)
	}))

	level, err := client.PlayerLevel(context.Background(), "76561198000000001")
	require.NoError(t, err)
	assert.Nil(t, level)
}

func TestPlayerAchievementsAbsorbsPrivate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	states, err := client.PlayerAchievements(context.Background(), "76561198000000001", 440, "english")
	require.NoError(t, err)
	assert.Nil(t, states)
}

func TestPlayerAchievementsMapsUnlocks(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"playerstats":{"success":true,"achievements":[
			{"apiname":"WIN_ROUND","achieved":1,"unlocktime":1600000000},
			{"apiname":"WIN_MATCH","achieved":0,"unlocktime":0}]}}`)
	}))

	states, err := client.PlayerAchievements(context.Background(), "76561198000000001", 440, "english")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states["WIN_ROUND"].Achieved)
	assert.False(t, states["WIN_MATCH"].Achieved)
}

func TestCurrentPlayersAbsorbsRefusal(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	count, err := client.CurrentPlayers(context.Background(), 999999)
	require.NoError(t, err)
	assert.Nil(t, count)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	client.breaker = newBreaker(BreakerConfig{
		FailureThreshold:  2,
		SuccessThreshold:  1,
		Timeout:           time.Minute,
		HalfOpenMaxProbes: 1,
	})

	for i := 0; i < 2; i++ {
		_, err := client.FriendList(context.Background(), "x")
		require.Error(t, err)
		assert.True(t, IsKind(err, KindServerError))
	}

	_, err := client.FriendList(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestDeniedDoesNotTripBreaker(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	client.breaker = newBreaker(BreakerConfig{
		FailureThreshold:  2,
		SuccessThreshold:  1,
		Timeout:           time.Minute,
		HalfOpenMaxProbes: 1,
	})

	for i := 0; i < 5; i++ {
		_, err := client.FriendList(context.Background(), "x")
		require.Error(t, err)
		assert.True(t, IsKind(err, KindDenied))
	}
}

func TestRateLimitedDoesNotClearBreakerFailures(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	client.breaker = newBreaker(BreakerConfig{
		FailureThreshold:  2,
		SuccessThreshold:  1,
		Timeout:           time.Minute,
		HalfOpenMaxProbes: 1,
	})

	// A 429 between two 500s must not reset the failure count.
	for i := 0; i < 3; i++ {
		_, err := client.FriendList(context.Background(), "x")
		require.Error(t, err)
	}

	_, err := client.FriendList(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int64(3), calls.Load(), "the open circuit must skip the upstream call")
}
