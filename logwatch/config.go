package logwatch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabletally/tabletally/logwatch/feed"
)

// Config is the top-level watcher configuration.
type Config struct {
	// PageID labels the observed page in emitted batches.
	PageID string `yaml:"page_id"`

	// URL of the game page to observe.
	URL string `yaml:"url"`

	// Keywords is the candidate topic filter injected into the page
	// script. Empty = feed.DefaultKeywords.
	Keywords []string `yaml:"keywords"`

	Browser BrowserConfig `yaml:"browser"`
}

// BrowserConfig controls the Chrome lifecycle.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome.
	Remote string `yaml:"remote"`

	// Headful runs a visible browser window.
	Headful bool `yaml:"headful"`

	// ResourceBlocking lists resource types to block (fonts, media,
	// stylesheets). Never block images; their URLs carry the event data.
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("logwatch: parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PageID == "" {
		c.PageID = "game"
	}
	if len(c.Keywords) == 0 {
		c.Keywords = feed.DefaultKeywords
	}
}
