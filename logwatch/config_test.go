package logwatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tabletally/tabletally/logwatch/feed"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
page_id: colonist
url: https://example.com/game
keywords:
  - rolled
  - got
browser:
  headful: true
  resource_blocking:
    - fonts
    - media
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.PageID != "colonist" {
		t.Errorf("PageID = %q, want colonist", cfg.PageID)
	}
	if len(cfg.Keywords) != 2 {
		t.Errorf("Keywords = %v, want 2 entries", cfg.Keywords)
	}
	if !cfg.Browser.Headful {
		t.Error("Headful = false, want true")
	}
	if len(cfg.Browser.ResourceBlocking) != 2 {
		t.Errorf("ResourceBlocking = %v", cfg.Browser.ResourceBlocking)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{URL: "https://example.com"}
	cfg.applyDefaults()

	if cfg.PageID != "game" {
		t.Errorf("PageID = %q, want game", cfg.PageID)
	}
	if len(cfg.Keywords) != len(feed.DefaultKeywords) {
		t.Errorf("Keywords len = %d, want %d", len(cfg.Keywords), len(feed.DefaultKeywords))
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
