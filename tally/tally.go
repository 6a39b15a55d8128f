// Package tally turns the observed log feed into live per-player
// aggregates.
//
// It sits between logwatch (DOM observation) and the presentation layer.
// The pipeline, per candidate line and strictly in feed order:
//
//	extract → keyword filter → signature → dedupe → parse → state → render
//
// Key properties:
//   - At-most-once application: the dedup gate admits and marks atomically,
//     so a line is applied to state exactly once per distinct occurrence.
//   - Fail-soft: unparseable fragments, declined lines, and renderer errors
//     degrade accuracy, never availability.
//   - No persistence: all pipeline state dies with the session. The
//     optional journal is a write-only audit, never read back.
//
// Usage:
//
//	k, err := tally.New(cfg, logger, render.NewStdout(nil))
//	defer k.Close()
//	w := logwatch.New(wcfg, logger, k.Sink())
package tally

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tabletally/tabletally/logwatch/feed"
	"github.com/tabletally/tabletally/tally/internal/dedupe"
	"github.com/tabletally/tabletally/tally/internal/extract"
	"github.com/tabletally/tabletally/tally/internal/journal"
	"github.com/tabletally/tabletally/tally/internal/parse"
	"github.com/tabletally/tabletally/tally/internal/signature"
	"github.com/tabletally/tabletally/tally/internal/state"
	"github.com/tabletally/tabletally/tally/render"
)

// Keeper owns one pipeline instance: dedup memory, parser registry, state
// tracker, and renderers. Independent Keepers are fully isolated; there are
// no package-level registries.
type Keeper struct {
	mu       sync.Mutex
	cfg      *Config
	filter   *dedupe.Filter
	registry *parse.Registry
	tracker  *state.Tracker
	router   *render.Router
	journal  *journal.Journal // nil when disabled
	logger   *slog.Logger

	// counters for the debug surface
	lines    uint64 // candidate lines that passed the keyword filter
	admitted uint64 // lines the dedup gate let through
	applied  uint64 // events applied to state
}

// Stats holds pipeline counters and memory sizes.
type Stats struct {
	Lines       uint64 `json:"lines"`
	Admitted    uint64 `json:"admitted"`
	Applied     uint64 `json:"applied"`
	Players     int    `json:"players"`
	Signatures  int    `json:"signatures"`
	Adjacencies int    `json:"adjacencies"`
}

// New creates a Keeper. The renderers receive a full state push after every
// applied event; wire at least one or the aggregates are write-only.
func New(cfg *Config, logger *slog.Logger, renderers ...render.Renderer) (*Keeper, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	k := &Keeper{
		cfg:      cfg,
		filter:   dedupe.New(),
		registry: parse.NewRegistry(logger),
		tracker:  state.NewTracker(logger),
		router:   render.NewRouter(logger, renderers...),
		logger:   logger,
	}

	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath, logger)
		if err != nil {
			return nil, fmt.Errorf("tally: open journal: %w", err)
		}
		k.journal = j
	}

	return k, nil
}

// Sink returns a feed.Sink delivering batches into this Keeper's pipeline.
// Wire it into logwatch.New() to connect observation → interpretation.
func (k *Keeper) Sink() feed.Sink {
	return feed.NewCallback(k.HandleBatch)
}

// AddRenderer registers an additional presentation surface after
// construction (the page overlay only exists once the watcher has a tab).
func (k *Keeper) AddRenderer(r render.Renderer) {
	k.router.Add(r)
}

// HandleBatch processes a feed batch. Lines are handled strictly in order;
// the whole batch is applied under one lock so console reads never observe
// a half-applied batch.
func (k *Keeper) HandleBatch(ctx context.Context, batch feed.Batch) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, line := range batch.Lines {
		k.handleLine(ctx, line)
	}
	return nil
}

// handleLine runs one candidate through the pipeline. Caller holds k.mu.
func (k *Keeper) handleLine(ctx context.Context, line feed.Line) {
	text, images := extract.Line(line.HTML)
	if text == "" || !k.qualifies(text) {
		return
	}
	k.lines++

	// The contextual anchor only counts when the preceding sibling itself
	// qualifies as a candidate; anything else is no anchor at all.
	prevSig := ""
	if line.PrevHTML != "" {
		if ptext, pimages := extract.Line(line.PrevHTML); ptext != "" && k.qualifies(ptext) {
			prevSig = signature.Compute(ptext, pimages)
		}
	}

	sig := signature.Compute(text, images)
	if !k.filter.Admit(sig, prevSig) {
		k.logger.Debug("tally: suppressed re-render echo", "text", text)
		return
	}
	k.admitted++

	evt := k.registry.Recognize(text, images)
	if evt == nil {
		k.logger.Debug("tally: no recognizer matched", "text", text)
		return
	}

	k.tracker.Apply(evt)
	k.applied++
	if k.journal != nil {
		k.journal.Record(ctx, evt)
	}

	k.pushLocked(ctx)
}

// qualifies applies the broad topic filter.
func (k *Keeper) qualifies(text string) bool {
	for _, kw := range k.cfg.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// PushState pushes the current observable state to all renderers. Called by
// the pipeline after every applied event; call it once at boot so surfaces
// start from the empty state.
func (k *Keeper) PushState(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pushLocked(ctx)
}

func (k *Keeper) pushLocked(ctx context.Context) {
	if err := k.router.RenderPlayers(ctx, k.tracker.Snapshot()); err != nil {
		k.logger.Warn("tally: players push failed", "error", err)
	}
	if err := k.router.RenderDice(ctx, k.tracker.DiceCounts()); err != nil {
		k.logger.Warn("tally: dice push failed", "error", err)
	}
}

// PlayersSnapshot returns the current player records in first-appearance
// order.
func (k *Keeper) PlayersSnapshot() []state.PlayerEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tracker.Snapshot()
}

// DiceCounts returns the dice histogram, buckets 2..12.
func (k *Keeper) DiceCounts() map[int]int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tracker.DiceCounts()
}

// BuildLog returns the build ledger in application order.
func (k *Keeper) BuildLog() []state.BuildEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tracker.BuildLog()
}

// Stats returns pipeline counters.
func (k *Keeper) Stats() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()
	sigs, pairs := k.filter.Size()
	return Stats{
		Lines:       k.lines,
		Admitted:    k.admitted,
		Applied:     k.applied,
		Players:     k.tracker.PlayerCount(),
		Signatures:  sigs,
		Adjacencies: pairs,
	}
}

// Clear resets everything: player records, dice histogram, build ledger,
// and the dedup memory. A previously seen line is first sight again. The
// now-empty state is pushed to renderers.
func (k *Keeper) Clear(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tracker.Clear()
	k.filter.Reset()
	k.lines, k.admitted, k.applied = 0, 0, 0
	k.logger.Info("tally: state cleared")
	k.pushLocked(ctx)
}

// Close shuts down the journal and renderers.
func (k *Keeper) Close() error {
	var firstErr error
	if k.journal != nil {
		if err := k.journal.Close(); err != nil {
			firstErr = err
		}
	}
	if err := k.router.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
