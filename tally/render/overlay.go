package render

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/tabletally/tabletally/tally/internal/state"
)

// overlayJS builds or updates the floating panel inside the observed page.
// It receives the full state on every call; pure presentation.
const overlayJS = `(players, dice) => {
	let panel = document.getElementById("tabletally-overlay");
	if (!panel) {
		panel = document.createElement("div");
		panel.id = "tabletally-overlay";
		panel.style.cssText = "position:fixed;top:8px;right:8px;z-index:2147483647;" +
			"background:rgba(20,20,20,0.85);color:#eee;font:12px monospace;" +
			"padding:8px;border-radius:6px;pointer-events:none;max-width:320px;";
		document.documentElement.appendChild(panel);
	}
	const kinds = ["wood", "brick", "sheep", "wheat", "ore"];
	let html = "<table>";
	html += "<tr><th style='text-align:left'>player</th>" +
		kinds.map((k) => "<th>" + k[0].toUpperCase() + "</th>").join("") +
		"<th>&Sigma;</th></tr>";
	for (const p of players || []) {
		html += "<tr><td>" + p.name + "</td>" +
			kinds.map((k) => "<td style='text-align:right'>" + (p.counts[k] || 0) + "</td>").join("") +
			"<td style='text-align:right'>" + p.total + "</td></tr>";
	}
	html += "</table>";
	if (dice) {
		html += "<div style='margin-top:4px'>";
		for (let s = 2; s <= 12; s++) {
			html += s + ":" + (dice[s] || 0) + " ";
		}
		html += "</div>";
	}
	panel.innerHTML = html;
}`

// Overlay renders state into the observed page itself as a floating panel.
// Presentation failures are logged, never propagated: a broken overlay must
// not disturb the pipeline or the page.
type Overlay struct {
	page   *rod.Page
	logger *slog.Logger

	// last pushed values, so either render call can redraw the whole panel
	players []state.PlayerEntry
	dice    map[int]int
}

// NewOverlay creates an Overlay targeting the given page.
func NewOverlay(page *rod.Page, logger *slog.Logger) *Overlay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Overlay{page: page, logger: logger}
}

func (o *Overlay) RenderPlayers(ctx context.Context, players []state.PlayerEntry) error {
	o.players = players
	o.draw(ctx)
	return nil
}

func (o *Overlay) RenderDice(ctx context.Context, counts map[int]int) error {
	o.dice = counts
	o.draw(ctx)
	return nil
}

func (o *Overlay) Close() error { return nil }

func (o *Overlay) draw(ctx context.Context) {
	if _, err := o.page.Context(ctx).Eval(overlayJS, o.players, o.dice); err != nil {
		o.logger.Warn("overlay: draw failed", "error", err)
	}
}
