package lists

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"cerberus/internal/domain"
)

// maxFeedSize caps a single feed download. Feeds larger than this are
// rejected outright rather than ingested partially.
const maxFeedSize = 50 * 1024 * 1024

// ErrFeedNotModified is returned when the feed answered 304 and the caller
// should keep its last-good set.
var ErrFeedNotModified = errors.New("feed not modified")

// FeedSource provides the domain set for a static list. Implementations
// must honor the context deadline; the refresh schedule depends on fetches
// never hanging.
type FeedSource interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Domain, error)
}

// HTTPFeed fetches a text feed over HTTP and parses it into domains.
// It sends If-None-Match on repeat fetches so unchanged feeds cost a 304.
type HTTPFeed struct {
	name   string
	url    string
	parser Parser
	client *http.Client

	mu   sync.Mutex
	etag string
}

// NewHTTPFeed creates a feed source for the given URL and format.
// maxEntries caps how many feed lines are consumed; 0 means all.
func NewHTTPFeed(name, url, format string, maxEntries int, timeout time.Duration) *HTTPFeed {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parser := ParserForFormat(format)
	if p, ok := parser.(*URLListParser); ok {
		p.MaxEntries = maxEntries
	}
	return &HTTPFeed{
		name:   name,
		url:    url,
		parser: parser,
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFeed) Name() string { return f.name }

// Fetch downloads and parses the feed. Returns ErrFeedNotModified on 304.
func (f *HTTPFeed) Fetch(ctx context.Context) ([]domain.Domain, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "cerberus-feed-sync/1.0")

	f.mu.Lock()
	if f.etag != "" {
		req.Header.Set("If-None-Match", f.etag)
	}
	f.mu.Unlock()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", f.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrFeedNotModified
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: HTTP %d", f.name, resp.StatusCode)
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		f.mu.Lock()
		f.etag = etag
		f.mu.Unlock()
	}

	// One extra byte distinguishes "exactly at the limit" from "truncated".
	lr := &io.LimitedReader{R: resp.Body, N: maxFeedSize + 1}
	domains, err := f.parser.Parse(lr)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.name, err)
	}
	if lr.N == 0 {
		return nil, fmt.Errorf("feed %s exceeds %d bytes, refusing partial data", f.name, maxFeedSize)
	}
	return domains, nil
}
