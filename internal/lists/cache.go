package lists

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cerberus/internal/domain"
)

// ErrCacheStale is returned by LoadCache when the on-disk snapshot exists
// but is older than the allowed age.
var ErrCacheStale = errors.New("list cache is stale")

// cacheFile is the on-disk snapshot of a refreshed list.
type cacheFile struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Source    Source          `json:"source"`
	Domains   []domain.Domain `json:"domains"`
}

// SaveCache writes a list snapshot to path atomically (temp file + rename),
// so a crash mid-write never corrupts the previous snapshot.
func SaveCache(path string, source Source, domains []domain.Domain, fetchedAt time.Time) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(cacheFile{FetchedAt: fetchedAt, Source: source, Domains: domains})
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache: %w", err)
	}
	return os.Rename(tmpName, path)
}

// LoadCache reads a snapshot from path. A snapshot older than maxAge
// returns ErrCacheStale alongside its contents, so callers can decide to
// serve stale data while a refresh is in flight.
func LoadCache(path string, maxAge time.Duration) ([]domain.Domain, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode cache %s: %w", path, err)
	}

	if maxAge > 0 && time.Since(cf.FetchedAt) > maxAge {
		return cf.Domains, cf.FetchedAt, ErrCacheStale
	}
	return cf.Domains, cf.FetchedAt, nil
}
