// Package parse classifies candidate log lines into typed game events.
//
// Parsers are pure functions of (text, images). The registry tries them in
// registration order and the first match wins; order is significant, not a
// specificity ranking. A panicking parser counts as a decline, so one bad
// recognizer never takes the pipeline down.
package parse

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tabletally/tabletally/tally/internal/signature"
)

// Func attempts to classify one line. It returns nil to decline. Parsers
// must not mutate shared state.
type Func func(text string, images []string) Event

type entry struct {
	name string
	fn   Func
}

// Registry is an ordered set of recognizers.
type Registry struct {
	parsers []entry
	logger  *slog.Logger
}

// NewRegistry creates a Registry with the built-in recognizers registered
// in their canonical order: dice roll, starting resources, got, build.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger}
	r.Register("dice_roll", parseDiceRoll)
	r.Register("starting_resources", parseStartingResources)
	r.Register("got", parseGot)
	r.Register("build", parseBuild)
	return r
}

// Register appends a recognizer. Later registrations only see lines every
// earlier parser declined.
func (r *Registry) Register(name string, fn Func) {
	r.parsers = append(r.parsers, entry{name: name, fn: fn})
}

// Recognize returns the first event a parser produces, or nil when every
// parser declines.
func (r *Registry) Recognize(text string, images []string) Event {
	for _, e := range r.parsers {
		if evt := r.try(e, text, images); evt != nil {
			return evt
		}
	}
	return nil
}

func (r *Registry) try(e entry, text string, images []string) (evt Event) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("parse: recognizer failed, treating as decline",
				"parser", e.name, "panic", p)
			evt = nil
		}
	}()
	return e.fn(text, images)
}

// Matching is substring/regex based over each image's resolved source URL;
// icon order on the line never matters, only the multiset of kinds.
var (
	dieFace = regexp.MustCompile(`dice_(\d+)`)
	gotWord = regexp.MustCompile(`\bgot\b`)

	resourcePatterns = map[Resource]*regexp.Regexp{
		Wood:  regexp.MustCompile(`card_lumber`),
		Brick: regexp.MustCompile(`card_brick`),
		Sheep: regexp.MustCompile(`card_wool`),
		Wheat: regexp.MustCompile(`card_grain`),
		Ore:   regexp.MustCompile(`card_ore`),
	}

	itemPrefixes = []struct {
		prefix string
		item   Item
	}{
		{"road_", Road},
		{"settlement_", Settlement},
		{"city_", City},
	}
)

// firstToken is the player-name rule: first whitespace-delimited token,
// no trimming, no roster validation. If the host's text format changes this
// silently produces a wrong-but-harmless player key.
func firstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseDiceRoll(text string, images []string) Event {
	if !strings.Contains(text, "rolled") {
		return nil
	}
	sum, dice := 0, 0
	for _, src := range images {
		m := dieFace.FindStringSubmatch(src)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		sum += v
		dice++
	}
	if dice == 0 {
		return nil
	}
	return DiceRoll{Sum: sum}
}

func countResources(images []string) Resources {
	counts := Resources{}
	for _, src := range images {
		for kind, pat := range resourcePatterns {
			if pat.MatchString(src) {
				counts[kind]++
				break
			}
		}
	}
	return counts
}

func parseStartingResources(text string, images []string) Event {
	if !strings.Contains(text, "received starting resources") {
		return nil
	}
	counts := countResources(images)
	if counts.Total() == 0 {
		return nil
	}
	return StartingResources{Player: firstToken(text), Resources: counts}
}

func parseGot(text string, images []string) Event {
	if !gotWord.MatchString(text) {
		return nil
	}
	counts := countResources(images)
	if counts.Total() == 0 {
		return nil
	}
	return Got{Player: firstToken(text), Resources: counts}
}

func parseBuild(text string, images []string) Event {
	if !strings.Contains(text, "built a") {
		return nil
	}
	var items []Item
	for _, src := range images {
		base := signature.Canonicalize(src)
		for _, ip := range itemPrefixes {
			if strings.HasPrefix(base, ip.prefix) {
				items = append(items, ip.item)
				break
			}
		}
		// Anything else on the line (avatars, decorations) is ignored.
	}
	return Build{Player: firstToken(text), Items: items}
}
