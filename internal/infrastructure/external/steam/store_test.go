package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

func newTestStoreClient(t *testing.T, handler http.Handler) *StoreClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultStoreConfig()
	config.BaseURL = server.URL
	config.MinInterval = time.Millisecond
	config.Logger = logger.New(logger.Options{Level: logger.LevelError})
	return NewStoreClient(config)
}

func TestAppDetailsParsesEnvelope(t *testing.T) {
	client := newTestStoreClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appdetails", r.URL.Path)
		assert.Equal(t, "440", r.URL.Query().Get("appids"))
		fmt.Fprint(w, `{"440":{"success":true,"data":{
			"name":"Team Fortress 2",
			"short_description":"Nine classes.",
			"developers":["Valve"],
			"release_date":{"coming_soon":false,"date":"10 Oct, 2007"},
			"platforms":{"windows":true,"mac":true,"linux":true},
			"metacritic":{"score":92}}}}`)
	}))

	details, err := client.AppDetails(context.Background(), 440, "english")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, 440, details.AppID)
	assert.Equal(t, "Team Fortress 2", details.Name)
	assert.Equal(t, []string{"Valve"}, details.Developers)
	assert.Equal(t, "10 Oct, 2007", details.ReleaseDate)
	require.NotNil(t, details.Platforms)
	assert.True(t, details.Platforms.Linux)
	require.NotNil(t, details.MetacriticScore)
	assert.Equal(t, 92, *details.MetacriticScore)
}

func TestAppDetailsSecondCallServedFromCache(t *testing.T) {
	var calls atomic.Int64
	client := newTestStoreClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"440":{"success":true,"data":{"name":"Team Fortress 2"}}}`)
	}))

	for i := 0; i < 3; i++ {
		details, err := client.AppDetails(context.Background(), 440, "english")
		require.NoError(t, err)
		require.NotNil(t, details)
		assert.Equal(t, "Team Fortress 2", details.Name)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestAppDetailsCachesMissingApp(t *testing.T) {
	var calls atomic.Int64
	client := newTestStoreClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"999999":{"success":false}}`)
	}))

	for i := 0; i < 3; i++ {
		details, err := client.AppDetails(context.Background(), 999999, "english")
		require.NoError(t, err)
		assert.Nil(t, details)
	}
	assert.Equal(t, int64(1), calls.Load(), "a delisted app is a cached result, not a retry")
}

func TestAppDetailsServerErrorNotCached(t *testing.T) {
	var calls atomic.Int64
	client := newTestStoreClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		_, err := client.AppDetails(context.Background(), 440, "english")
		require.Error(t, err)
		assert.True(t, IsKind(err, KindServerError))
	}
	assert.Equal(t, int64(2), calls.Load(), "failures are retried, only results are cached")
}
