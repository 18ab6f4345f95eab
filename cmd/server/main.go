// Package main is the entry point for the Steam Gametime Hub backend:
// the BFF that turns a Steam account into a friends playtime
// leaderboard, a friends list, a library browser and per-game detail
// pages for the SPA.
//
// The architecture follows Clean Architecture and DDD:
//   - Domain: result shapes and ranking rules, no external dependencies
//   - Application: query handlers orchestrating the aggregation
//   - Infrastructure: Steam Web API client, caches, token stores
//   - Interface: the HTTP API consumed by the SPA
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gametime-hub/steam-gametime-hub/config"
	"github.com/gametime-hub/steam-gametime-hub/internal/application/query"
	"github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/auth"
	"github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/external/steam"
	"github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/persistence/postgres"
	gtredis "github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/persistence/redis"
	"github.com/gametime-hub/steam-gametime-hub/internal/metrics"
	httpserver "github.com/gametime-hub/steam-gametime-hub/internal/interface/http"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
	"github.com/gametime-hub/steam-gametime-hub/pkg/rategate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := logger.LevelInfo
	if cfg.App.Debug {
		logLevel = logger.LevelDebug
	}
	log := logger.New(logger.Options{Level: logLevel})
	log.Info("starting",
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Upstream clients.
	clientConfig := steam.DefaultClientConfig(cfg.Steam.APIKey)
	clientConfig.BaseURL = cfg.Steam.BaseURL
	clientConfig.Timeout = cfg.Steam.Timeout
	clientConfig.Logger = log
	clientConfig.Metrics = m
	client := steam.NewClient(clientConfig)

	storeConfig := steam.DefaultStoreConfig()
	storeConfig.BaseURL = cfg.Steam.StoreBaseURL
	storeConfig.Timeout = cfg.Steam.Timeout
	storeConfig.MinInterval = cfg.Steam.StoreMinInterval
	storeConfig.Logger = log
	storeClient := steam.NewStoreClient(storeConfig)

	// Concurrency gates, shared process-wide.
	usageGate, err := rategate.New(cfg.Steam.UsageGateSize)
	if err != nil {
		return err
	}
	levelGate, err := rategate.New(cfg.Steam.LevelGateSize)
	if err != nil {
		return err
	}
	metrics.RegisterGateGauge(registry, "usage", usageGate.InFlight)
	metrics.RegisterGateGauge(registry, "level", levelGate.InFlight)

	stopJanitors := make(chan struct{})
	defer close(stopJanitors)

	// Stat cache: in-process by default, Redis when configured.
	var statCache query.StatCache
	if cfg.Redis.Enabled {
		redisConfig := gtredis.DefaultConfig()
		redisConfig.Host = cfg.Redis.Host
		redisConfig.Port = cfg.Redis.Port
		redisConfig.Password = cfg.Redis.Password
		redisConfig.DB = cfg.Redis.DB
		redisCache, err := gtredis.NewStatCache(ctx, redisConfig, log)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		statCache = redisCache
		log.Info("stat cache: redis", logger.String("addr", redisConfig.Addr()))
	} else {
		memCache := query.NewMemoryStatCache()
		memCache.StartJanitor(time.Minute, stopJanitors)
		statCache = memCache
		log.Info("stat cache: in-process")
	}

	// Refresh tokens: in-memory by default, PostgreSQL when configured.
	var refreshStore auth.RefreshStore
	if cfg.Database.Enabled {
		pgConfig := postgres.DefaultConfig()
		pgConfig.Host = cfg.Database.Host
		pgConfig.Port = cfg.Database.Port
		pgConfig.Database = cfg.Database.Database
		pgConfig.User = cfg.Database.User
		pgConfig.Password = cfg.Database.Password
		pgConfig.SSLMode = cfg.Database.SSLMode
		conn, err := postgres.Connect(ctx, pgConfig, log)
		if err != nil {
			return err
		}
		defer conn.Close()

		repo, err := postgres.NewRefreshRepository(ctx, conn)
		if err != nil {
			return err
		}
		go purgeLoop(ctx, repo, log)
		refreshStore = repo
		log.Info("refresh tokens: postgres")
	} else {
		memStore := auth.NewMemoryRefreshStore()
		memStore.StartJanitor(time.Hour, stopJanitors)
		refreshStore = memStore
		log.Info("refresh tokens: in-memory")
	}

	// Sessions.
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    cfg.Auth.Secret,
		Issuer:    cfg.Auth.Issuer,
		Audience:  cfg.Auth.Audience,
		AccessTTL: cfg.Auth.AccessTTL,
	})
	if err != nil {
		return err
	}
	refresh := auth.NewRefreshManager(refreshStore, auth.RefreshConfig{TTL: cfg.Auth.RefreshTTL})

	// HTTP server.
	server := httpserver.NewServer(httpserver.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		EnableMetrics:      cfg.Server.EnableMetrics,
		CookieDomain:       cfg.Server.CookieDomain,
		CookieSecure:       cfg.Server.CookieSecure,
		DevLoginEnabled:    cfg.Server.DevLoginEnabled,
	}, httpserver.Dependencies{
		Leaderboard: query.NewGetLeaderboardHandler(client, statCache, usageGate, log, m),
		FriendsList: query.NewGetFriendsListHandler(client, statCache, levelGate, log, m),
		Profile:     query.NewGetProfileHandler(client, statCache, levelGate, log, m),
		Games:       query.NewGetGamesHandler(client, log),
		GameDetails: query.NewGetGameDetailsHandler(client, storeClient, log),
		Tokens:      tokens,
		Refresh:     refresh,
		Registry:    registry,
		Logger:      log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stopped cleanly")
	return nil
}

// purgeLoop deletes expired refresh tokens once an hour.
func purgeLoop(ctx context.Context, repo *postgres.RefreshRepository, log *logger.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := repo.DeleteExpired(ctx, now); err != nil {
				log.Warn("refresh token purge failed", logger.Err(err))
			}
		}
	}
}
