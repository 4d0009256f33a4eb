// Package config loads patchfeed configuration from an optional YAML file,
// with environment overrides for the paths deployments most often move.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wrgg/patchfeed/scraper"
	"github.com/wrgg/patchfeed/seed"
)

// Environment variables recognized by Load.
const (
	EnvConfigPath = "PATCHFEED_CONFIG"
	EnvDatabase   = "PATCHFEED_DB"
)

// Duration wraps time.Duration so YAML configs can say "10s" or "2m".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the full patchfeed configuration.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database"`

	// ListingURL is the patch notes listing page. FeedURL, when set, is
	// used for discovery instead.
	ListingURL string `yaml:"listing_url"`
	RosterURL  string `yaml:"roster_url"`
	FeedURL    string `yaml:"feed_url"`

	// BaseURL resolves relative links on the listing page. Defaults to the
	// listing URL's origin.
	BaseURL string `yaml:"base_url"`

	// ArtifactPath is where the standalone fetch command writes its
	// snapshot document.
	ArtifactPath string `yaml:"artifact_path"`

	FetchTimeout Duration `yaml:"fetch_timeout"`
	Concurrency  int      `yaml:"concurrency"`
	UserAgent    string   `yaml:"user_agent"`

	Selectors scraper.Schema `yaml:"selectors"`
	Seeds     seed.Files     `yaml:"seeds"`
}

// Default returns the configuration targeting the live Wild Rift site.
func Default() Config {
	return Config{
		Database:     "patchfeed.sqlite",
		ListingURL:   "https://wildrift.leagueoflegends.com/en-us/news/tags/patch-notes/",
		RosterURL:    "https://wildrift.leagueoflegends.com/en-us/champions/",
		BaseURL:      "https://wildrift.leagueoflegends.com",
		ArtifactPath: "patch_changes.json",
		FetchTimeout: Duration(10 * time.Second),
		Concurrency:  4,
		UserAgent:    "patchfeed/1.0 (patch notes aggregator)",
		Selectors:    scraper.DefaultSchema(),
		Seeds: seed.Files{
			Champions: "seeds/champions.json",
			Patches:   "seeds/patch_notes.json",
			Changes:   "seeds/patch_changes.json",
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path (or PATCHFEED_CONFIG, or ~/.patchfeed/config.yaml when path
// is empty), overlaid by environment variables. A missing config file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".patchfeed", "config.yaml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// File doesn't exist -- not an error
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if db := os.Getenv(EnvDatabase); db != "" {
		cfg.Database = db
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields every command depends on.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("config: database path is required")
	}
	if c.ListingURL == "" && c.FeedURL == "" {
		return fmt.Errorf("config: one of listing_url or feed_url is required")
	}
	if c.RosterURL == "" {
		return fmt.Errorf("config: roster_url is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be at least 1")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("config: fetch_timeout must not be negative")
	}
	return nil
}
