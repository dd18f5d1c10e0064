// Package jobs holds the background loops that keep the static lists fresh.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cerberus/internal/domain"
	"cerberus/internal/lists"
	"cerberus/internal/metrics"
)

// FeedRefresher keeps one list store synchronized with its external feeds.
// A refresh failure is logged and the last-good set keeps serving.
type FeedRefresher struct {
	store    *lists.Store
	feeds    []lists.FeedSource
	cacheDir string
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewFeedRefresher creates a refresher for one store. cacheDir holds the
// per-feed disk snapshots used for cold starts; empty disables caching.
func NewFeedRefresher(store *lists.Store, feeds []lists.FeedSource, cacheDir string, interval, maxAge time.Duration, logger *slog.Logger) *FeedRefresher {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedRefresher{
		store:    store,
		feeds:    feeds,
		cacheDir: cacheDir,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// InitialLoad fills the store before the server accepts traffic: a fresh
// disk snapshot wins; otherwise one synchronous refresh is attempted; if
// that fails too, a stale snapshot still beats starting empty. Only with
// nothing at all does the store start empty and wait for the background
// loop to retry.
func (r *FeedRefresher) InitialLoad(ctx context.Context) {
	if r.loadFromDisk(r.maxAge) {
		return
	}
	if r.refresh(ctx) {
		return
	}
	if r.loadFromDisk(0) {
		r.logger.Warn("refresh failed, serving stale disk snapshot", "list", r.store.Name())
		return
	}
	r.logger.Warn("list starting empty, will retry on schedule", "list", r.store.Name())
	r.store.Replace(nil, time.Now())
}

// Start runs the refresh loop until ctx is cancelled.
func (r *FeedRefresher) Start(ctx context.Context) {
	r.logger.Info("feed refresher started", "list", r.store.Name(), "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("feed refresher stopped", "list", r.store.Name())
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// loadFromDisk restores the store from disk snapshots no older than maxAge
// (0 accepts any age). Returns false if any feed's snapshot is missing or
// too old, in which case a live refresh decides the whole set.
func (r *FeedRefresher) loadFromDisk(maxAge time.Duration) bool {
	if r.cacheDir == "" {
		return false
	}

	var all []liststub
	for _, feed := range r.feeds {
		domains, fetchedAt, err := lists.LoadCache(r.cachePath(feed.Name()), maxAge)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				r.logger.Warn("list cache unusable", "list", r.store.Name(), "feed", feed.Name(), "error", err)
			}
			return false
		}
		all = append(all, liststub{domains: domains, fetchedAt: fetchedAt})
	}
	if len(all) == 0 {
		return false
	}

	merged := all[0]
	for _, s := range all[1:] {
		merged.domains = append(merged.domains, s.domains...)
		if s.fetchedAt.Before(merged.fetchedAt) {
			merged.fetchedAt = s.fetchedAt
		}
	}
	r.store.Replace(merged.domains, merged.fetchedAt)
	metrics.SetFeedEntries(r.store.Name(), r.store.Size())
	r.logger.Info("list restored from disk cache",
		"list", r.store.Name(), "entries", r.store.Size(), "fetched_at", merged.fetchedAt)
	return true
}

type liststub struct {
	domains   []domain.Domain
	fetchedAt time.Time
}

// refresh fetches all feeds and swaps the merged set in. Partial failure
// keeps the previous set: a half-fetched blacklist would silently stop
// covering known phish.
func (r *FeedRefresher) refresh(ctx context.Context) bool {
	now := time.Now()
	var merged []domain.Domain

	for _, feed := range r.feeds {
		domains, err := feed.Fetch(ctx)
		if errors.Is(err, lists.ErrFeedNotModified) {
			// Unchanged upstream: reuse the disk snapshot for this feed.
			cached, _, cacheErr := lists.LoadCache(r.cachePath(feed.Name()), 0)
			if cacheErr != nil {
				r.logger.Warn("feed unchanged but cache unreadable, keeping current set",
					"feed", feed.Name(), "error", cacheErr)
				metrics.RecordFeedRefresh(feed.Name(), "error")
				return false
			}
			metrics.RecordFeedRefresh(feed.Name(), "not_modified")
			merged = append(merged, cached...)
			continue
		}
		if err != nil {
			r.logger.Error("feed refresh failed, keeping current set",
				"list", r.store.Name(), "feed", feed.Name(), "error", err)
			metrics.RecordFeedRefresh(feed.Name(), "error")
			return false
		}

		metrics.RecordFeedRefresh(feed.Name(), "ok")
		merged = append(merged, domains...)
		if err := lists.SaveCache(r.cachePath(feed.Name()), r.storeSource(), domains, now); err != nil {
			r.logger.Warn("failed to persist feed snapshot", "feed", feed.Name(), "error", err)
		}
	}

	r.store.Replace(merged, now)
	metrics.SetFeedEntries(r.store.Name(), r.store.Size())
	r.logger.Info("list refreshed", "list", r.store.Name(), "entries", r.store.Size())
	return true
}

func (r *FeedRefresher) cachePath(feedName string) string {
	if r.cacheDir == "" {
		return ""
	}
	return filepath.Join(r.cacheDir, feedName+".json")
}

func (r *FeedRefresher) storeSource() lists.Source {
	if r.store.Name() == "whitelist" {
		return lists.SourceGlobal
	}
	return lists.SourceThreatFeed
}
