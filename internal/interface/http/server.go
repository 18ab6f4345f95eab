// Package http implements the REST API serving the SPA: session
// endpoints, the friends leaderboard and list, the profile card, the
// games library and per-game details, plus health and metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gametime-hub/steam-gametime-hub/internal/application/query"
	"github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/auth"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// AllowedOrigins - allowed origins for CORS. The SPA runs on a
	// different origin in development, so this matters from day one.
	AllowedOrigins []string

	// RateLimitPerMinute - requests per minute per IP (0 = disabled).
	RateLimitPerMinute int

	// EnableMetrics - expose the Prometheus endpoint.
	EnableMetrics bool

	// CookieDomain - domain for the refresh cookie.
	CookieDomain string

	// CookieSecure - mark the refresh cookie Secure; off only for
	// local development over plain HTTP.
	CookieSecure bool

	// DevLoginEnabled opens the development-only login endpoint that
	// mints a session for an arbitrary Steam ID. Never on in
	// production; the real flow goes through Steam OpenID.
	DevLoginEnabled bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		AllowedOrigins:     []string{"http://localhost:5173"},
		RateLimitPerMinute: 100,
		EnableMetrics:      true,
		CookieSecure:       true,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the handlers call into.
type Dependencies struct {
	Leaderboard *query.GetLeaderboardHandler
	FriendsList *query.GetFriendsListHandler
	Profile     *query.GetProfileHandler
	Games       *query.GetGamesHandler
	GameDetails *query.GetGameDetailsHandler

	Tokens  *auth.TokenService
	Refresh *auth.RefreshManager

	Registry *prometheus.Registry

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP server.
type Server struct {
	config  Config
	deps    Dependencies
	logger  *logger.Logger
	httpSrv *http.Server
	router  chi.Router
}

// NewServer builds the server and its route tree.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger.With(logger.Component("http_server")),
	}
	s.router = s.buildRouter()
	s.httpSrv = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler exposes the route tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.config.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.config.RateLimitPerMinute, time.Minute))
	}

	r.Get("/healthz", s.handleHealth)
	if s.config.EnableMetrics && s.deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/auth/steam", func(r chi.Router) {
		if s.config.DevLoginEnabled {
			r.Post("/dev-login", s.handleDevLogin)
		}
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.With(s.requireAuth).Get("/me", s.handleMe)
	})

	r.Route("/api/steam", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/friends/leaderboard", s.handleLeaderboard)
		r.Get("/friends/list", s.handleFriendsList)
		r.Get("/profile", s.handleProfile)
		r.Get("/games", s.handleGames)
		r.Get("/games/{appid}/gamedetails", s.handleGameDetails)
	})

	return r
}

// Start begins serving and blocks until the listener fails or the
// server is shut down.
func (s *Server) Start() error {
	s.logger.Info("http server listening", logger.String("addr", s.config.Address()))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
