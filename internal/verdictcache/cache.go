// Package verdictcache shares analysis verdicts across requests so a page
// judged once is not re-analyzed for every user who visits it.
package verdictcache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/storage/redis/v3"

	"cerberus/internal/domain"
	"cerberus/internal/models"
)

// DefaultTTL bounds how long an analysis verdict stays authoritative.
// Phishing pages are short-lived, so a stale Dangerous verdict is cheap but
// a stale Safe verdict is not.
const DefaultTTL = 15 * time.Minute

// Storage is the key/value contract the cache runs on. The redis storage
// driver satisfies it; tests and single-node deployments use the in-memory
// fallback.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Close() error
}

// NewRedisStorage connects the cache to a shared redis instance.
func NewRedisStorage(url string) Storage {
	return redis.New(redis.Config{URL: url})
}

// Cache stores verdicts produced by the analysis layer keyed by domain.
// Verdicts decided by the list layers are never cached; the lists are the
// cheaper and fresher source for those.
type Cache struct {
	store  Storage
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a verdict cache over the given storage. A nil store falls
// back to an in-process map.
func New(store Storage, ttl time.Duration, logger *slog.Logger) *Cache {
	if store == nil {
		store = NewMemoryStorage()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, ttl: ttl, logger: logger}
}

func cacheKey(d domain.Domain) string {
	return "verdict:" + string(d)
}

// Get returns the cached analysis verdict for a domain, reshaped to show
// it came from the cache. The second return is false on miss or on any
// storage error; the caller falls through to live analysis.
func (c *Cache) Get(d domain.Domain) (models.Verdict, bool) {
	raw, err := c.store.Get(cacheKey(d))
	if err != nil {
		c.logger.Warn("verdict cache read failed", "domain", d, "error", err)
		return models.Verdict{}, false
	}
	if len(raw) == 0 {
		return models.Verdict{}, false
	}

	var v models.Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("verdict cache entry corrupt, dropping", "domain", d, "error", err)
		_ = c.store.Delete(cacheKey(d))
		return models.Verdict{}, false
	}

	v.Source = models.SourceVerdictCache
	v.Reasons = append([]models.Reason{{
		Code:   models.ReasonCachedAnalysis,
		Label:  "Cached Analysis",
		Detail: fmt.Sprintf("A recent analysis of %s produced this verdict.", d),
	}}, v.Reasons...)
	return v, true
}

// Put stores an analysis verdict. Failures are logged and swallowed; the
// cache is an optimization, never a dependency.
func (c *Cache) Put(d domain.Domain, v models.Verdict) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("verdict cache encode failed", "domain", d, "error", err)
		return
	}
	if err := c.store.Set(cacheKey(d), raw, c.ttl); err != nil {
		c.logger.Warn("verdict cache write failed", "domain", d, "error", err)
	}
}

// Invalidate drops the cached verdict for a domain, used when user feedback
// contradicts a cached analysis.
func (c *Cache) Invalidate(d domain.Domain) {
	if err := c.store.Delete(cacheKey(d)); err != nil {
		c.logger.Warn("verdict cache delete failed", "domain", d, "error", err)
	}
}

// Close releases the underlying storage.
func (c *Cache) Close() error {
	return c.store.Close()
}

// memoryStorage is the single-node fallback when no redis URL is
// configured. Expiry is enforced lazily on read.
type memoryStorage struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	val []byte
	exp time.Time
}

// NewMemoryStorage creates an in-process Storage.
func NewMemoryStorage() Storage {
	return &memoryStorage{entries: map[string]memoryEntry{}}
}

func (m *memoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return e.val, nil
}

func (m *memoryStorage) Set(key string, val []byte, exp time.Duration) error {
	e := memoryEntry{val: val}
	if exp > 0 {
		e.exp = time.Now().Add(exp)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *memoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryStorage) Close() error {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
	return nil
}
