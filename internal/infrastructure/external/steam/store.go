package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/games"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/ttlcache"
)

// StoreConfig contains configuration for the storefront client.
type StoreConfig struct {
	// BaseURL is the storefront API base URL.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MinInterval is the minimum spacing between storefront calls.
	// The storefront has no API key and throttles aggressively, so
	// calls are paced rather than fired concurrently.
	MinInterval time.Duration

	// CacheTTL is how long app details stay cached.
	CacheTTL time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultStoreConfig returns sensible defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		BaseURL:     "https://store.steampowered.com",
		Timeout:     12 * time.Second,
		MinInterval: 150 * time.Millisecond,
		CacheTTL:    time.Hour,
	}
}

// StoreClient fetches app details from the Steam storefront, which is
// a separate, keyless API with its own throttling rules. Results are
// cached in process since store pages change rarely; "no data" is a
// result too, cached as a nil entry so delisted apps do not re-hit
// the paced storefront on every view.
type StoreClient struct {
	config     StoreConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *ttlcache.Cache[*games.Details]
	logger     *logger.Logger
}

// NewStoreClient creates a new storefront client.
func NewStoreClient(config StoreConfig) *StoreClient {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://store.steampowered.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 12 * time.Second
	}
	if config.MinInterval <= 0 {
		config.MinInterval = 150 * time.Millisecond
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Hour
	}

	return &StoreClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(config.MinInterval), 1),
		cache:   ttlcache.New[*games.Details](),
		logger:  config.Logger.With(logger.Component("store_client")),
	}
}

type appDetailsEnvelope struct {
	Success bool            `json:"success"`
	Data    *appDetailsData `json:"data"`
}

type appDetailsData struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	AboutTheGame     string   `json:"about_the_game"`
	HeaderImage      string   `json:"header_image"`
	Website          string   `json:"website"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	ReleaseDate      *struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	Platforms *struct {
		Windows bool `json:"windows"`
		Mac     bool `json:"mac"`
		Linux   bool `json:"linux"`
	} `json:"platforms"`
	Genres []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Metacritic *struct {
		Score int    `json:"score"`
		URL   string `json:"url"`
	} `json:"metacritic"`
}

// AppDetails fetches storefront metadata for an app. A missing or
// delisted app yields nil without error, and that outcome is cached
// like any other; only transport and decode failures are reported.
func (s *StoreClient) AppDetails(ctx context.Context, appID int, lang string) (*games.Details, error) {
	key := "store:app:" + strconv.Itoa(appID)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("appids", strconv.Itoa(appID))
	params.Set("l", lang)
	fullURL := s.config.BaseURL + "/api/appdetails?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("appdetails", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus("appdetails", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport("appdetails", err)
	}

	// The storefront wraps everything in a map keyed by the app ID.
	var envelope map[string]appDetailsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &Error{Kind: KindMalformed, Endpoint: "appdetails", Err: err}
	}

	entry, ok := envelope[strconv.Itoa(appID)]
	if !ok || !entry.Success || entry.Data == nil {
		s.logger.Debug("no storefront data", logger.AppID(appID))
		s.cache.Set(key, nil, s.config.CacheTTL)
		return nil, nil
	}

	details := toStoreDetails(appID, entry.Data)
	s.cache.Set(key, &details, s.config.CacheTTL)
	return &details, nil
}

func toStoreDetails(appID int, d *appDetailsData) games.Details {
	details := games.Details{
		AppID:            appID,
		Name:             d.Name,
		ShortDescription: d.ShortDescription,
		AboutTheGame:     d.AboutTheGame,
		HeaderImage:      d.HeaderImage,
		Website:          d.Website,
		Developers:       d.Developers,
		Publishers:       d.Publishers,
	}
	if d.ReleaseDate != nil && !d.ReleaseDate.ComingSoon {
		details.ReleaseDate = d.ReleaseDate.Date
	}
	if d.Platforms != nil {
		details.Platforms = &games.Platforms{
			AppID:   appID,
			Windows: d.Platforms.Windows,
			Mac:     d.Platforms.Mac,
			Linux:   d.Platforms.Linux,
		}
	}
	for _, g := range d.Genres {
		details.Genres = append(details.Genres, g.Description)
	}
	if d.Metacritic != nil {
		score := d.Metacritic.Score
		details.MetacriticScore = &score
	}
	return details
}
