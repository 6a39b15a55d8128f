// Package journal appends applied events to a SQLite audit log.
//
// The journal is write-only from the pipeline's perspective: it is never
// read back at boot, so live state keeps its process-memory durability
// boundary. Failures are logged and never block the pipeline.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tabletally/tabletally/tally/internal/parse"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS applied_events (
	event_id   TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	player     TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applied_events_kind ON applied_events(kind);
`

// Journal is the append-only event audit store.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the journal database at path and applies the
// schema plus the production pragmas.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	return &Journal{db: db, logger: logger}, nil
}

// Record appends one applied event. Non-blocking semantics: errors are
// logged, never propagated — a failing audit store must not cost the
// pipeline an event.
func (j *Journal) Record(ctx context.Context, evt parse.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		j.logger.Warn("journal: marshal event", "kind", evt.Kind(), "error", err)
		payload = []byte("{}")
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO applied_events (event_id, kind, player, payload, created_at)
		VALUES (?,?,?,?,?)`,
		uuid.NewString(), evt.Kind(), eventPlayer(evt), string(payload), time.Now().Unix())
	if err != nil {
		j.logger.Warn("journal: insert failed", "kind", evt.Kind(), "error", err)
	}
}

// Count returns the number of journaled events, for diagnostics.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM applied_events").Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func eventPlayer(evt parse.Event) string {
	switch e := evt.(type) {
	case parse.StartingResources:
		return e.Player
	case parse.Got:
		return e.Player
	case parse.Build:
		return e.Player
	}
	return ""
}
