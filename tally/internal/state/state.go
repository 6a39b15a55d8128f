// Package state holds the running aggregates the overlay displays: player
// resource records, the dice histogram, and the build ledger.
//
// All state is process memory. A reload of the observed page discards
// everything; that is the intended durability boundary.
package state

import (
	"log/slog"

	"github.com/tabletally/tabletally/tally/internal/parse"
)

// playerRecord tracks one player's hand as inferred from the log. Counts
// and Total satisfy the invariant Total == sum(Counts) at all times.
type playerRecord struct {
	counts parse.Resources
	total  int
}

// PlayerEntry is a copied view of one player's record, safe to hand to
// renderers and console clients.
type PlayerEntry struct {
	Name   string          `json:"name"`
	Counts parse.Resources `json:"counts"`
	Total  int             `json:"total"`
}

// BuildEntry is one ledger row: what was built and what it actually cost
// (after clamping against the player's holdings).
type BuildEntry struct {
	Player string          `json:"player"`
	Item   parse.Item      `json:"item"`
	Spent  parse.Resources `json:"spent"`
}

// buildCosts is the fixed construction cost table.
var buildCosts = map[parse.Item]parse.Resources{
	parse.Road:       {parse.Wood: 1, parse.Brick: 1},
	parse.Settlement: {parse.Wood: 1, parse.Brick: 1, parse.Sheep: 1, parse.Wheat: 1},
	parse.City:       {parse.Wheat: 2, parse.Ore: 3},
}

// Tracker owns all durable aggregates. It is not goroutine-safe; the Keeper
// serialises access.
type Tracker struct {
	players map[string]*playerRecord
	order   []string // player names in first-appearance order
	dice    map[int]int
	builds  []BuildEntry
	logger  *slog.Logger
}

// NewTracker creates an empty Tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		players: make(map[string]*playerRecord),
		dice:    make(map[int]int),
		logger:  logger,
	}
}

// player returns the record for name, creating it on first reference.
// Player keys are case-sensitive verbatim first tokens.
func (t *Tracker) player(name string) *playerRecord {
	rec, ok := t.players[name]
	if !ok {
		rec = &playerRecord{counts: parse.Resources{}}
		t.players[name] = rec
		t.order = append(t.order, name)
	}
	return rec
}

// Apply folds one event into the aggregates. Unknown event kinds are
// accepted without error and change nothing, so new variants can ship
// without touching this switch.
func (t *Tracker) Apply(evt parse.Event) {
	switch e := evt.(type) {
	case parse.DiceRoll:
		t.RecordRoll(e.Sum)
	case parse.StartingResources:
		t.grant(e.Player, e.Resources)
	case parse.Got:
		t.grant(e.Player, e.Resources)
	case parse.Build:
		t.applyBuild(e)
	default:
		t.logger.Debug("state: ignoring unknown event", "kind", evt.Kind())
	}
}

// grant merges res additively into the named player's record.
func (t *Tracker) grant(name string, res parse.Resources) {
	rec := t.player(name)
	added := 0
	for kind, n := range res {
		if n <= 0 {
			continue
		}
		rec.counts[kind] += n
		added += n
	}
	rec.total += added
	if added == 0 {
		t.logger.Debug("state: empty resource grant", "player", name)
	}
}

// Spend removes up to want from the player's holdings, clamping each kind
// at zero. Total decreases by exactly the amount removed, so the record
// invariant holds even under under-funded spends. Returns the amounts
// actually removed.
func (t *Tracker) Spend(name string, want parse.Resources) parse.Resources {
	rec := t.player(name)
	removed := parse.Resources{}
	for kind, n := range want {
		take := min(rec.counts[kind], n)
		if take <= 0 {
			continue
		}
		rec.counts[kind] -= take
		rec.total -= take
		removed[kind] = take
	}
	return removed
}

func (t *Tracker) applyBuild(e parse.Build) {
	t.player(e.Player)
	if len(e.Items) == 0 {
		t.logger.Debug("state: build with no recognised items", "player", e.Player)
		return
	}
	for _, item := range e.Items {
		cost, ok := buildCosts[item]
		if !ok {
			t.logger.Warn("state: no cost entry for item", "item", item)
			continue
		}
		spent := t.Spend(e.Player, cost)
		t.builds = append(t.builds, BuildEntry{Player: e.Player, Item: item, Spent: spent})
	}
}

// RecordRoll increments the histogram bucket for sum. Sums outside 2..12
// are not recorded.
func (t *Tracker) RecordRoll(sum int) {
	if sum < 2 || sum > 12 {
		return
	}
	t.dice[sum]++
}

// Snapshot returns players in first-appearance order with copied records.
func (t *Tracker) Snapshot() []PlayerEntry {
	out := make([]PlayerEntry, 0, len(t.order))
	for _, name := range t.order {
		rec := t.players[name]
		counts := rec.counts.Clone()
		for _, kind := range parse.Kinds() {
			if _, ok := counts[kind]; !ok {
				counts[kind] = 0
			}
		}
		out = append(out, PlayerEntry{Name: name, Counts: counts, Total: rec.total})
	}
	return out
}

// PlayerCount returns the number of known players without copying records.
func (t *Tracker) PlayerCount() int {
	return len(t.players)
}

// DiceCounts returns a copy of the histogram with every bucket 2..12
// present.
func (t *Tracker) DiceCounts() map[int]int {
	out := make(map[int]int, 11)
	for sum := 2; sum <= 12; sum++ {
		out[sum] = t.dice[sum]
	}
	return out
}

// BuildLog returns a copy of the build ledger in application order.
func (t *Tracker) BuildLog() []BuildEntry {
	out := make([]BuildEntry, len(t.builds))
	copy(out, t.builds)
	return out
}

// Clear resets every aggregate to its boot state.
func (t *Tracker) Clear() {
	t.players = make(map[string]*playerRecord)
	t.order = nil
	t.dice = make(map[int]int)
	t.builds = nil
}
