package tally

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/tabletally/tabletally/logwatch/feed"
	"github.com/tabletally/tabletally/tally/internal/state"
)

// countingRenderer records pushes so tests can assert the pipeline renders
// after each applied event.
type countingRenderer struct {
	mu          sync.Mutex
	playerPush  int
	dicePush    int
	lastPlayers []state.PlayerEntry
	lastDice    map[int]int
}

func (c *countingRenderer) RenderPlayers(_ context.Context, players []state.PlayerEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerPush++
	c.lastPlayers = players
	return nil
}

func (c *countingRenderer) RenderDice(_ context.Context, counts map[int]int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dicePush++
	c.lastDice = counts
	return nil
}

func (c *countingRenderer) Close() error { return nil }

func testKeeper(t *testing.T) (*Keeper, *countingRenderer) {
	t.Helper()
	r := &countingRenderer{}
	k, err := New(&Config{}, slog.Default(), r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { k.Close() })
	return k, r
}

func deliver(t *testing.T, k *Keeper, htmls ...string) {
	t.Helper()
	lines := make([]feed.Line, len(htmls))
	for i, h := range htmls {
		lines[i] = feed.Line{HTML: h, Origin: feed.OriginMain}
	}
	if err := k.HandleBatch(context.Background(), feed.Batch{
		ID:    "batch-test",
		Phase: feed.PhaseLive,
		Lines: lines,
	}); err != nil {
		t.Fatalf("HandleBatch: %v", err)
	}
}

func findPlayer(t *testing.T, players []state.PlayerEntry, name string) state.PlayerEntry {
	t.Helper()
	for _, p := range players {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("player %q not found in snapshot", name)
	return state.PlayerEntry{}
}

func TestHandleBatch_DiceRoll(t *testing.T) {
	k, _ := testKeeper(t)

	deliver(t, k, `<div>Bob rolled <img src="/assets/dice_3.svg"><img src="/assets/dice_4.svg"></div>`)

	dice := k.DiceCounts()
	if dice[7] != 1 {
		t.Errorf("dice[7] = %d, want 1", dice[7])
	}
	for s := 2; s <= 12; s++ {
		if s != 7 && dice[s] != 0 {
			t.Errorf("dice[%d] = %d, want 0", s, dice[s])
		}
	}
}

func TestHandleBatch_GotResources(t *testing.T) {
	k, _ := testKeeper(t)

	deliver(t, k, `<div>Carol got <img src="/card_lumber.svg"><img src="/card_lumber.svg"><img src="/card_brick.svg"></div>`)

	carol := findPlayer(t, k.PlayersSnapshot(), "Carol")
	if carol.Counts["wood"] != 2 {
		t.Errorf("wood = %d, want 2", carol.Counts["wood"])
	}
	if carol.Counts["brick"] != 1 {
		t.Errorf("brick = %d, want 1", carol.Counts["brick"])
	}
	if carol.Total != 3 {
		t.Errorf("total = %d, want 3", carol.Total)
	}
}

func TestHandleBatch_BuildSpends(t *testing.T) {
	k, _ := testKeeper(t)

	deliver(t, k,
		`<div>Dave received starting resources <img src="/card_lumber.svg"><img src="/card_brick.svg"><img src="/card_wool.svg"><img src="/card_grain.svg"></div>`,
		`<div>Dave built a <img src="/settlement_red.abc123de.svg"></div>`,
	)

	dave := findPlayer(t, k.PlayersSnapshot(), "Dave")
	if dave.Total != 0 {
		t.Errorf("total after settlement = %d, want 0", dave.Total)
	}

	builds := k.BuildLog()
	if len(builds) != 1 {
		t.Fatalf("build log len = %d, want 1", len(builds))
	}
	if builds[0].Player != "Dave" || builds[0].Item != "settlement" {
		t.Errorf("build entry = %+v", builds[0])
	}
	if builds[0].Spent.Total() != 4 {
		t.Errorf("spent total = %d, want 4", builds[0].Spent.Total())
	}
}

func TestHandleBatch_DuplicateSuppressed(t *testing.T) {
	k, _ := testKeeper(t)

	line := `<div>Bob rolled <img src="/dice_2.svg"><img src="/dice_2.svg"></div>`
	// The same line redelivered without a new anchor is a re-render echo.
	deliver(t, k, line)
	deliver(t, k, line)

	if got := k.DiceCounts()[4]; got != 1 {
		t.Errorf("dice[4] = %d, want 1 (echo must be suppressed)", got)
	}

	stats := k.Stats()
	if stats.Lines != 2 {
		t.Errorf("Lines = %d, want 2", stats.Lines)
	}
	if stats.Admitted != 1 {
		t.Errorf("Admitted = %d, want 1", stats.Admitted)
	}
	if stats.Applied != 1 {
		t.Errorf("Applied = %d, want 1", stats.Applied)
	}
}

func TestHandleBatch_RepeatWithFreshAnchor(t *testing.T) {
	k, _ := testKeeper(t)

	roll := `<div>Bob rolled <img src="/dice_3.svg"><img src="/dice_1.svg"></div>`
	deliver(t, k, roll)

	// Same roll later in the game, anchored by a line never seen before it.
	other := `<div>Carol got <img src="/card_ore.svg"></div>`
	deliver(t, k, other)
	if err := k.HandleBatch(context.Background(), feed.Batch{
		ID:    "batch-anchor",
		Phase: feed.PhaseLive,
		Lines: []feed.Line{{HTML: roll, PrevHTML: other, Origin: feed.OriginMain}},
	}); err != nil {
		t.Fatalf("HandleBatch: %v", err)
	}

	if got := k.DiceCounts()[4]; got != 2 {
		t.Errorf("dice[4] = %d, want 2 (fresh anchor means a real repeat)", got)
	}
}

func TestHandleBatch_RepeatPastDividerSibling(t *testing.T) {
	k, _ := testKeeper(t)

	// Log layout: roll, got, decorative divider, then the same roll again.
	// The watcher's anchor search walks back past the divider, so the
	// second roll ships with the got line as its anchor and must count.
	roll := `<div>Bob rolled <img src="/dice_2.svg"><img src="/dice_2.svg"></div>`
	got := `<div>Carol got <img src="/card_ore.svg"></div>`
	deliver(t, k, roll, got)

	if err := k.HandleBatch(context.Background(), feed.Batch{
		ID:    "batch-divider",
		Phase: feed.PhaseLive,
		Lines: []feed.Line{{HTML: roll, PrevHTML: got, Origin: feed.OriginMain}},
	}); err != nil {
		t.Fatalf("HandleBatch: %v", err)
	}

	if have := k.DiceCounts()[4]; have != 2 {
		t.Errorf("dice[4] = %d, want 2 (anchor found past the divider)", have)
	}

	// A divider is not an anchor: shipping the non-qualifying sibling
	// itself leaves the repeat unanchored and suppressed.
	divider := `<div class="divider">--- turn 7 ---</div>`
	if err := k.HandleBatch(context.Background(), feed.Batch{
		ID:    "batch-divider-anchor",
		Phase: feed.PhaseLive,
		Lines: []feed.Line{{HTML: roll, PrevHTML: divider, Origin: feed.OriginMain}},
	}); err != nil {
		t.Fatalf("HandleBatch: %v", err)
	}
	if have := k.DiceCounts()[4]; have != 2 {
		t.Errorf("dice[4] = %d, want 2 (divider must not anchor a repeat)", have)
	}
}

func TestHandleBatch_RepeatWithKnownAnchorSuppressed(t *testing.T) {
	k, _ := testKeeper(t)

	other := `<div>Carol got <img src="/card_ore.svg"></div>`
	roll := `<div>Bob rolled <img src="/dice_3.svg"><img src="/dice_1.svg"></div>`
	if err := k.HandleBatch(context.Background(), feed.Batch{
		ID:    "batch-seed",
		Phase: feed.PhaseBoot,
		Lines: []feed.Line{
			{HTML: other, Origin: feed.OriginMain},
			{HTML: roll, PrevHTML: other, Origin: feed.OriginMain},
		},
	}); err != nil {
		t.Fatalf("HandleBatch: %v", err)
	}

	// Boot enumeration re-observed verbatim: same line, same anchor.
	if err := k.HandleBatch(context.Background(), feed.Batch{
		ID:    "batch-echo",
		Phase: feed.PhaseLive,
		Lines: []feed.Line{{HTML: roll, PrevHTML: other, Origin: feed.OriginMain}},
	}); err != nil {
		t.Fatalf("HandleBatch: %v", err)
	}

	if got := k.DiceCounts()[4]; got != 1 {
		t.Errorf("dice[4] = %d, want 1 (known anchor pair is an echo)", got)
	}
}

func TestHandleBatch_KeywordFilter(t *testing.T) {
	k, _ := testKeeper(t)

	deliver(t, k, `<div>Bob is thinking about the weather</div>`)

	stats := k.Stats()
	if stats.Lines != 0 {
		t.Errorf("Lines = %d, want 0 (no keyword match)", stats.Lines)
	}
	if len(k.PlayersSnapshot()) != 0 {
		t.Error("no players expected")
	}
}

func TestHandleBatch_RendersAfterApply(t *testing.T) {
	k, r := testKeeper(t)

	deliver(t, k, `<div>Carol got <img src="/card_grain.svg"></div>`)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playerPush != 1 || r.dicePush != 1 {
		t.Errorf("pushes = (%d, %d), want (1, 1)", r.playerPush, r.dicePush)
	}
	if len(r.lastPlayers) != 1 || r.lastPlayers[0].Name != "Carol" {
		t.Errorf("last players push = %+v", r.lastPlayers)
	}
}

func TestClear_ResetsEverything(t *testing.T) {
	k, r := testKeeper(t)

	line := `<div>Eve got <img src="/card_wool.svg"></div>`
	deliver(t, k, line)
	k.Clear(context.Background())

	if len(k.PlayersSnapshot()) != 0 {
		t.Error("players should be empty after clear")
	}
	stats := k.Stats()
	if stats.Signatures != 0 || stats.Adjacencies != 0 {
		t.Errorf("dedup memory not reset: %+v", stats)
	}

	// After a clear, a previously seen line is first sight again.
	deliver(t, k, line)
	eve := findPlayer(t, k.PlayersSnapshot(), "Eve")
	if eve.Counts["sheep"] != 1 {
		t.Errorf("sheep = %d, want 1 after re-apply", eve.Counts["sheep"])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playerPush < 3 { // apply + clear + re-apply
		t.Errorf("playerPush = %d, want >= 3", r.playerPush)
	}
}

func TestHandleBatch_UnparseableLineCountsButNoEvent(t *testing.T) {
	k, _ := testKeeper(t)

	// Qualifies (contains "rolled") but has no die faces: recognized by no
	// parser, dropped without touching state.
	deliver(t, k, `<div>Bob rolled off the couch</div>`)

	stats := k.Stats()
	if stats.Lines != 1 || stats.Admitted != 1 || stats.Applied != 0 {
		t.Errorf("stats = %+v, want lines=1 admitted=1 applied=0", stats)
	}
}

func TestConfig_DefaultKeywords(t *testing.T) {
	cfg := &Config{}
	cfg.defaults()
	if len(cfg.Keywords) != len(feed.DefaultKeywords) {
		t.Errorf("keywords len = %d, want %d", len(cfg.Keywords), len(feed.DefaultKeywords))
	}
}

func TestJournal_RecordsAppliedEvents(t *testing.T) {
	r := &countingRenderer{}
	k, err := New(&Config{JournalPath: t.TempDir() + "/journal.db"}, slog.Default(), r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer k.Close()

	deliver(t, k, `<div>Carol got <img src="/card_brick.svg"></div>`)

	n, err := k.journal.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("journal count = %d, want 1", n)
	}
}
