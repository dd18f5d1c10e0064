package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FeedsConfig represents the structure of the feeds.yaml file. The feed
// list is hierarchical enough that YAML beats env vars for it.
type FeedsConfig struct {
	Whitelist []FeedConfig `yaml:"whitelist"`
	Blacklist []FeedConfig `yaml:"blacklist"`
}

// FeedConfig defines one external list feed.
type FeedConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Format string `yaml:"format"` // "domains", "urls", "hostfile", "ranked_csv"
	// MaxEntries caps how many entries are taken from the feed, newest
	// first. 0 means no cap.
	MaxEntries int `yaml:"max_entries,omitempty"`
}

// DefaultFeeds is used when no feeds.yaml is present: the CrUX top-sites
// list as the whitelist and the OpenPhish feed as the blacklist, matching
// the sources the extension was built around.
func DefaultFeeds() *FeedsConfig {
	return &FeedsConfig{
		Whitelist: []FeedConfig{{
			Name:   "crux-top-sites",
			URL:    "https://raw.githubusercontent.com/zakird/crux-top-lists/main/data/global/current.csv",
			Format: "ranked_csv",
		}},
		Blacklist: []FeedConfig{{
			Name:       "openphish",
			URL:        "https://openphish.com/feed.txt",
			Format:     "urls",
			MaxEntries: 1000,
		}},
	}
}

// LoadFeedsConfig loads the feeds YAML file. Path is determined by the
// FEEDS_FILE env var, defaulting to "feeds.yaml". Returns the built-in
// defaults when the file doesn't exist.
func LoadFeedsConfig() (*FeedsConfig, error) {
	path := getEnv("FEEDS_FILE", "feeds.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultFeeds(), nil
		}
		return nil, err
	}

	var cfg FeedsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if len(cfg.Whitelist) == 0 && len(cfg.Blacklist) == 0 {
		return DefaultFeeds(), nil
	}
	return &cfg, nil
}
