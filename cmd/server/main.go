package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cerberus/internal/analysis"
	"cerberus/internal/config"
	"cerberus/internal/db"
	"cerberus/internal/jobs"
	"cerberus/internal/lists"
	"cerberus/internal/metrics"
	"cerberus/internal/personal"
	"cerberus/internal/server"
	"cerberus/internal/verdict"
	"cerberus/internal/verdictcache"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := slog.Default()

	metrics.Init()

	// Static lists and their feeds
	feeds, err := config.LoadFeedsConfig()
	if err != nil {
		log.Fatalf("Failed to load feeds config: %v", err)
	}

	whitelist := lists.NewStore("whitelist", lists.SourceGlobal)
	blacklist := lists.NewStore("blacklist", lists.SourceThreatFeed)

	whitelistRefresher := jobs.NewFeedRefresher(whitelist, feedSources(feeds.Whitelist),
		cfg.FeedCacheDir, cfg.FeedRefreshInterval, cfg.FeedCacheMaxAge, logger)
	blacklistRefresher := jobs.NewFeedRefresher(blacklist, feedSources(feeds.Blacklist),
		cfg.FeedCacheDir, cfg.FeedRefreshInterval, cfg.FeedCacheMaxAge, logger)

	whitelistRefresher.InitialLoad(ctx)
	blacklistRefresher.InitialLoad(ctx)
	go whitelistRefresher.Start(ctx)
	go blacklistRefresher.Start(ctx)

	// Personal trusted-sites cache
	personalCache := personal.NewCache(cfg.PersonalCachePath, logger,
		personal.WithMaxSize(cfg.PersonalCacheSize))
	if err := personalCache.Load(); err != nil {
		log.Printf("Warning: failed to load personal cache: %v", err)
	}

	// Analysis providers and race coordinator
	local := analysis.NewLocalAnalyzer(cfg.LocalModelURL, cfg.LocalModelName, logger)
	remote := analysis.NewRemoteAnalyzer(cfg.RemoteModelURL, cfg.RemoteModelName,
		cfg.RemoteAPIKey, cfg.RemoteRPS, 2, logger)
	coordinator := analysis.NewCoordinator(local, remote, analysis.RaceConfig{
		LocalTimeout:        cfg.LocalTimeout,
		RemoteTimeout:       cfg.RemoteTimeout,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}, logger)

	// Shared verdict cache: redis when configured, in-process otherwise
	var cacheStore verdictcache.Storage
	if cfg.RedisURL != "" {
		cacheStore = verdictcache.NewRedisStorage(cfg.RedisURL)
		log.Println("Verdict cache backed by redis")
	}
	cache := verdictcache.New(cacheStore, cfg.VerdictCacheTTL, logger)
	defer cache.Close()

	// Database is optional; feedback and stats need it
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations completed successfully")
	} else {
		log.Println("DATABASE_URL not set; feedback and stats endpoints disabled")
	}

	pipeline := verdict.New(whitelist, blacklist, personalCache, cache, coordinator, logger)

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, server.Deps{
		Pipeline: pipeline,
		Personal: personalCache,
		Database: database,
		Logger:   logger,
	}); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := personalCache.Persist(); err != nil {
		log.Printf("Warning: failed to persist personal cache: %v", err)
	}
	log.Println("Server exited")
}

// feedSources builds HTTP feed sources from the configured feed list.
func feedSources(configs []config.FeedConfig) []lists.FeedSource {
	sources := make([]lists.FeedSource, 0, len(configs))
	for _, fc := range configs {
		sources = append(sources, lists.NewHTTPFeed(fc.Name, fc.URL, fc.Format, fc.MaxEntries, 30*time.Second))
	}
	return sources
}
