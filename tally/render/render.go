// Package render defines the presentation contract for tally state.
//
// Renderers are one-way consumers: the Keeper pushes the full observable
// state (player snapshot, dice histogram) after every applied event and at
// boot, never batched or debounced. Implementations must tolerate being
// called with identical state repeatedly.
package render

import (
	"context"

	"github.com/tabletally/tabletally/tally/internal/state"
)

// Renderer receives state pushes. Implementations deliver them to different
// surfaces (stdout, webhook, the observed page itself).
type Renderer interface {
	RenderPlayers(ctx context.Context, players []state.PlayerEntry) error
	RenderDice(ctx context.Context, counts map[int]int) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
