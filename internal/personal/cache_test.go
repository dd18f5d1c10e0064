package personal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cerberus/internal/domain"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personal.json")
	return NewCache(path, nil, opts...)
}

func TestPromotionByVisitCount(t *testing.T) {
	c := newTestCache(t)
	d := domain.Domain("example.com")

	for i := 1; i < DefaultPromotionThreshold; i++ {
		c.RecordVisit(d)
		if c.IsTrusted(d) {
			t.Fatalf("IsTrusted(%q) = true after %d visits, want false below threshold", d, i)
		}
	}

	c.RecordVisit(d)
	if !c.IsTrusted(d) {
		t.Fatalf("IsTrusted(%q) = false after %d visits, want true", d, DefaultPromotionThreshold)
	}

	// Promotion is sticky.
	c.RecordVisit(d)
	if !c.IsTrusted(d) {
		t.Error("promoted entry should stay trusted on subsequent visits")
	}
}

func TestPromotionWindowLapse(t *testing.T) {
	current := time.Now()
	c := newTestCache(t, WithClock(func() time.Time { return current }))
	d := domain.Domain("slow.example.com")

	// Nine visits, then a gap longer than the window: counting restarts.
	for i := 0; i < DefaultPromotionThreshold-1; i++ {
		c.RecordVisit(d)
	}
	current = current.Add(DefaultPromotionWindow + time.Hour)
	c.RecordVisit(d)

	if c.IsTrusted(d) {
		t.Error("visits outside the promotion window should not promote")
	}

	// Threshold visits inside the fresh window do promote.
	for i := 0; i < DefaultPromotionThreshold-1; i++ {
		c.RecordVisit(d)
	}
	if !c.IsTrusted(d) {
		t.Error("entry should promote once threshold is reached within the window")
	}
}

func TestExplicitTrust(t *testing.T) {
	c := newTestCache(t)
	d := domain.Domain("trusted.example.com")

	c.AddExplicit(d)
	if !c.IsTrusted(d) {
		t.Fatal("explicitly added domain should be trusted immediately")
	}

	c.RemoveExplicit(d)
	if c.IsTrusted(d) {
		t.Error("removed domain should not be trusted")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after removal, want 0 (entry removed entirely)", c.Len())
	}
}

func TestExactHostMatching(t *testing.T) {
	c := newTestCache(t)
	c.AddExplicit("mail.example.com")

	if c.IsTrusted("example.com") {
		t.Error("personal trust must not generalize to the parent domain")
	}
	if c.IsTrusted("other.example.com") {
		t.Error("personal trust must not generalize to sibling hosts")
	}
}

func TestLRUEviction(t *testing.T) {
	c := newTestCache(t, WithMaxSize(3))

	c.RecordVisit("a.test")
	c.RecordVisit("b.test")
	c.RecordVisit("c.test")

	// Touch a.test so b.test becomes least recently used.
	c.RecordVisit("a.test")

	c.RecordVisit("d.test")

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (exactly one eviction)", c.Len())
	}
	for _, e := range c.Entries() {
		if e.Domain == "b.test" {
			t.Error("b.test was least recently used and should have been evicted")
		}
	}
}

func TestEvictionSparesExplicitEntries(t *testing.T) {
	c := newTestCache(t, WithMaxSize(3))

	c.AddExplicit("keep.test")
	c.RecordVisit("v1.test")
	c.RecordVisit("v2.test")

	c.RecordVisit("new.test")

	domains := make(map[domain.Domain]bool)
	for _, e := range c.Entries() {
		domains[e.Domain] = true
	}
	if !domains["keep.test"] {
		t.Error("explicit entry should survive eviction while non-explicit entries exist")
	}
	if domains["v1.test"] {
		t.Error("v1.test was the least recently used non-explicit entry, should be evicted")
	}
}

func TestEvictionWhenAllExplicit(t *testing.T) {
	c := newTestCache(t, WithMaxSize(2))

	c.AddExplicit("first.test")
	c.AddExplicit("second.test")
	c.AddExplicit("third.test")

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	for _, e := range c.Entries() {
		if e.Domain == "first.test" {
			t.Error("oldest explicit entry should be evicted when all slots are explicit")
		}
	}
	if !c.IsTrusted("third.test") {
		t.Error("newest explicit entry should be present")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personal.json")

	c := NewCache(path, nil)
	for i := 0; i < DefaultPromotionThreshold; i++ {
		c.RecordVisit("promoted.test")
	}
	c.RecordVisit("counted.test")
	c.RecordVisit("counted.test")
	c.AddExplicit("explicit.test")

	if err := c.Persist(); err != nil {
		t.Fatalf("Persist() error: %v", err)
	}

	fresh := NewCache(path, nil)
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if fresh.Len() != c.Len() {
		t.Fatalf("loaded Len() = %d, want %d", fresh.Len(), c.Len())
	}
	if !fresh.IsTrusted("promoted.test") {
		t.Error("promoted entry should remain trusted after reload")
	}
	if !fresh.IsTrusted("explicit.test") {
		t.Error("explicit entry should remain trusted after reload")
	}
	if fresh.IsTrusted("counted.test") {
		t.Error("unpromoted entry should remain untrusted after reload")
	}

	var counted *Entry
	for _, e := range fresh.Entries() {
		if e.Domain == "counted.test" {
			e := e
			counted = &e
		}
	}
	if counted == nil {
		t.Fatal("counted.test missing after reload")
	}
	if counted.VisitCount != 2 {
		t.Errorf("counted.test visit_count = %d, want 2", counted.VisitCount)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "absent.json"), nil)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() on missing file should be nil, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personal.json")
	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(path, nil)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() on corrupt file should be nil (empty cache), got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLoadTruncatesOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personal.json")

	big := NewCache(path, nil, WithMaxSize(100))
	for i := 0; i < 50; i++ {
		big.RecordVisit(domain.Domain(fmt.Sprintf("host%02d.test", i)))
	}
	if err := big.Persist(); err != nil {
		t.Fatal(err)
	}

	small := NewCache(path, nil, WithMaxSize(10))
	if err := small.Load(); err != nil {
		t.Fatal(err)
	}
	if small.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", small.Len())
	}
	// The newest entries (highest indices) survive.
	for _, e := range small.Entries() {
		if e.Domain == "host00.test" {
			t.Error("oldest entries should be dropped when truncating")
		}
	}
}

func TestRevisitMovesToMostRecent(t *testing.T) {
	c := newTestCache(t, WithMaxSize(10))
	c.RecordVisit("a.test")
	c.RecordVisit("b.test")
	c.RecordVisit("a.test")

	entries := c.Entries()
	if entries[len(entries)-1].Domain != "a.test" {
		t.Errorf("most recent entry = %q, want a.test", entries[len(entries)-1].Domain)
	}
}
