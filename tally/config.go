package tally

import (
	"github.com/tabletally/tabletally/logwatch/feed"
)

// Config controls the interpretation pipeline.
type Config struct {
	// Keywords is the candidate topic filter. Empty = feed.DefaultKeywords.
	// The same list should be given to the watcher so both sides agree on
	// what qualifies as a candidate line.
	Keywords []string `yaml:"keywords"`

	// JournalPath enables the SQLite audit log of applied events when
	// non-empty. The journal is never read back; live state stays in
	// process memory.
	JournalPath string `yaml:"journal_path"`
}

func (c *Config) defaults() {
	if len(c.Keywords) == 0 {
		c.Keywords = feed.DefaultKeywords
	}
}
