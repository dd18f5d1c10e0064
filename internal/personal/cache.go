// Package personal implements the per-user trusted-domain cache: a bounded
// LRU of visited domains that promotes frequently seen hosts to trusted and
// persists through atomic JSON snapshots.
package personal

import (
	"container/list"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cerberus/internal/domain"
	"cerberus/internal/metrics"
)

// Defaults for the promotion policy and cache bound.
const (
	DefaultMaxSize            = 30
	DefaultPromotionThreshold = 10
	DefaultPromotionWindow    = 20 * 24 * time.Hour
)

// Entry is one tracked domain. Domains are matched by exact host only:
// personal trust does not generalize to subdomains.
type Entry struct {
	Domain            domain.Domain `json:"domain"`
	VisitCount        int           `json:"visit_count"`
	FirstSeen         time.Time     `json:"first_seen"`
	LastSeen          time.Time     `json:"last_seen"`
	TrustedExplicitly bool          `json:"trusted_explicitly"`
	Promoted          bool          `json:"promoted"`
}

// Trusted reports whether the entry has been promoted by visit count or
// trusted explicitly by the user.
func (e Entry) Trusted() bool {
	return e.TrustedExplicitly || e.Promoted
}

// Cache is a bounded, LRU-evicting store of personally trusted domains.
// The lock covers only the map and order mutation; disk writes happen after
// the lock is released.
type Cache struct {
	mu        sync.Mutex
	order     *list.List // front = least recently used
	index     map[domain.Domain]*list.Element
	maxSize   int
	threshold int
	window    time.Duration

	path   string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxSize overrides the capacity bound.
func WithMaxSize(n int) Option { return func(c *Cache) { c.maxSize = n } }

// WithPromotion overrides the visit threshold and window.
func WithPromotion(threshold int, window time.Duration) Option {
	return func(c *Cache) {
		c.threshold = threshold
		c.window = window
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// NewCache creates a cache persisting to path. An empty path disables
// persistence.
func NewCache(path string, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		order:     list.New(),
		index:     make(map[domain.Domain]*list.Element),
		maxSize:   DefaultMaxSize,
		threshold: DefaultPromotionThreshold,
		window:    DefaultPromotionWindow,
		path:      path,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecordVisit counts a visit to d, refreshing its LRU position. Crossing
// the promotion threshold inside the window marks the entry trusted. If the
// window has lapsed without promotion, counting starts over.
func (c *Cache) RecordVisit(d domain.Domain) {
	now := c.now()

	c.mu.Lock()
	if el, ok := c.index[d]; ok {
		e := el.Value.(*Entry)
		if !e.Promoted && !e.TrustedExplicitly && now.Sub(e.FirstSeen) > c.window {
			e.FirstSeen = now
			e.VisitCount = 0
		}
		e.VisitCount++
		e.LastSeen = now
		if !e.Promoted && e.VisitCount >= c.threshold && now.Sub(e.FirstSeen) <= c.window {
			e.Promoted = true
			metrics.RecordPersonalCacheEvent("promotion")
		}
		c.order.MoveToBack(el)
	} else {
		c.insertLocked(&Entry{
			Domain:     d,
			VisitCount: 1,
			FirstSeen:  now,
			LastSeen:   now,
		})
	}
	c.mu.Unlock()

	c.save()
}

// AddExplicit inserts or updates d as explicitly trusted.
func (c *Cache) AddExplicit(d domain.Domain) {
	now := c.now()

	c.mu.Lock()
	if el, ok := c.index[d]; ok {
		e := el.Value.(*Entry)
		e.TrustedExplicitly = true
		e.LastSeen = now
		c.order.MoveToBack(el)
	} else {
		c.insertLocked(&Entry{
			Domain:            d,
			FirstSeen:         now,
			LastSeen:          now,
			TrustedExplicitly: true,
		})
	}
	c.mu.Unlock()

	c.save()
}

// RemoveExplicit deletes d entirely, not just its trusted flag.
func (c *Cache) RemoveExplicit(d domain.Domain) {
	c.mu.Lock()
	el, ok := c.index[d]
	if ok {
		c.order.Remove(el)
		delete(c.index, d)
	}
	c.mu.Unlock()

	if ok {
		c.save()
	}
}

// IsTrusted reports whether d exists and is trusted (promoted or explicit).
// Exact-host match only.
func (c *Cache) IsTrusted(d domain.Domain) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[d]
	if !ok {
		return false
	}
	return el.Value.(*Entry).Trusted()
}

// Len returns the number of tracked domains.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Entries returns a copy of all entries, least recently used first.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entriesLocked()
}

// Clear empties the cache and persists the empty state.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.order.Init()
	c.index = make(map[domain.Domain]*list.Element)
	c.mu.Unlock()

	c.save()
}

// insertLocked adds a new entry, evicting if at capacity. Explicit entries
// are exempt from eviction while any non-explicit entry remains; when every
// entry is explicit, the least recently used explicit entry goes.
func (c *Cache) insertLocked(e *Entry) {
	if c.order.Len() >= c.maxSize {
		c.evictLocked()
	}
	c.index[e.Domain] = c.order.PushBack(e)
}

func (c *Cache) evictLocked() {
	for el := c.order.Front(); el != nil; el = el.Next() {
		if !el.Value.(*Entry).TrustedExplicitly {
			c.removeElementLocked(el)
			return
		}
	}
	// All entries are explicit: evict the oldest explicit one.
	if el := c.order.Front(); el != nil {
		c.removeElementLocked(el)
	}
}

func (c *Cache) removeElementLocked(el *list.Element) {
	delete(c.index, el.Value.(*Entry).Domain)
	c.order.Remove(el)
	metrics.RecordPersonalCacheEvent("eviction")
}

func (c *Cache) entriesLocked() []Entry {
	entries := make([]Entry, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		entries = append(entries, *el.Value.(*Entry))
	}
	return entries
}

// save writes the current state to disk, retrying once. Failures are
// logged and dropped: the in-memory cache stays authoritative for the
// running process.
func (c *Cache) save() {
	if c.path == "" {
		return
	}
	if err := c.Persist(); err != nil {
		if err = c.Persist(); err != nil {
			c.logger.Warn("personal cache persist failed, state unsynced", "path", c.path, "error", err)
		}
	}
}

// Persist writes all entries to the backing file atomically (temp file +
// rename).
func (c *Cache) Persist() error {
	c.mu.Lock()
	entries := c.entriesLocked()
	c.mu.Unlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, c.path)
}

// Load replaces the cache contents from the backing file. A missing or
// corrupt file yields an empty cache; oversized files keep only the most
// recent entries.
func (c *Cache) Load() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("personal cache file corrupt, starting empty", "path", c.path, "error", err)
		return nil
	}

	if len(entries) > c.maxSize {
		entries = entries[len(entries)-c.maxSize:]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[domain.Domain]*list.Element, len(entries))
	for i := range entries {
		e := entries[i]
		if e.Domain == "" {
			continue
		}
		if _, ok := c.index[e.Domain]; ok {
			continue
		}
		c.index[e.Domain] = c.order.PushBack(&e)
	}
	return nil
}
