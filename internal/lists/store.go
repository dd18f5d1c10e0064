// Package lists implements the static trust lists: immutable-per-refresh
// domain sets fed from external reputation and threat-intel feeds, with an
// on-disk cache for cold starts.
package lists

import (
	"strings"
	"sync"
	"time"

	"cerberus/internal/domain"
)

// Source identifies where a list entry came from.
type Source string

const (
	// SourceGlobal marks entries from the global reputation feed (whitelist).
	SourceGlobal Source = "global"
	// SourceThreatFeed marks entries from a threat-intel feed (blacklist).
	SourceThreatFeed Source = "threat_feed"
)

// Entry is a single static list record.
type Entry struct {
	Domain  domain.Domain `json:"domain"`
	Source  Source        `json:"source"`
	AddedAt time.Time     `json:"added_at"`
}

// Store is a read-mostly domain set. Refreshes build a complete replacement
// map and swap it in under the write lock, so concurrent readers always see
// either the old or the new set, never a partial one.
type Store struct {
	name   string
	source Source

	mu        sync.RWMutex
	set       map[domain.Domain]Entry
	refreshed time.Time
}

// NewStore creates an empty, uninitialized store.
func NewStore(name string, source Source) *Store {
	return &Store{
		name:   name,
		source: source,
		set:    make(map[domain.Domain]Entry),
	}
}

// Name returns the store's configured name ("whitelist", "blacklist").
func (s *Store) Name() string { return s.name }

// Replace atomically swaps in a new domain set.
func (s *Store) Replace(domains []domain.Domain, refreshedAt time.Time) {
	set := make(map[domain.Domain]Entry, len(domains))
	for _, d := range domains {
		d = domain.Domain(strings.ToLower(strings.TrimSpace(string(d))))
		if d == "" {
			continue
		}
		if _, ok := set[d]; !ok {
			set[d] = Entry{Domain: d, Source: s.source, AddedAt: refreshedAt}
		}
	}

	s.mu.Lock()
	s.set = set
	s.refreshed = refreshedAt
	s.mu.Unlock()
}

// Contains reports whether d matches any stored entry under the given mode.
// Average O(1): the candidate keys from domain.MatchCandidates are probed
// against the set, so parent-domain semantics live in one place.
func (s *Store) Contains(d domain.Domain, mode domain.MatchMode) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.set[d]; ok {
		return true
	}
	if mode == domain.ExactHost {
		return false
	}

	for _, key := range domain.MatchCandidates(d)[1:] {
		if _, ok := s.set[key]; ok {
			return true
		}
	}
	return false
}

// Size returns the number of entries in the current set.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set)
}

// Initialized reports whether the store has completed at least one load
// (from disk cache or feed). Used by the readiness probe.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.refreshed.IsZero()
}

// RefreshedAt returns the time of the last successful set replacement.
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshed
}

// Snapshot returns a copy of the current entries, for persistence.
func (s *Store) Snapshot() []domain.Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	domains := make([]domain.Domain, 0, len(s.set))
	for d := range s.set {
		domains = append(domains, d)
	}
	return domains
}
