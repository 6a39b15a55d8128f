package render

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tabletally/tabletally/tally/internal/state"
)

// Router fans out state pushes to all registered renderers. One renderer
// error does not block the others — errors are logged and the first
// encountered is returned.
type Router struct {
	mu        sync.RWMutex
	renderers []Renderer
	logger    *slog.Logger
}

// NewRouter creates a fan-out router delivering to all renderers.
func NewRouter(logger *slog.Logger, renderers ...Renderer) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{renderers: renderers, logger: logger}
}

// Add registers an additional renderer. Used when a surface only becomes
// available after boot (the page overlay needs a live tab).
func (r *Router) Add(renderer Renderer) {
	r.mu.Lock()
	r.renderers = append(r.renderers, renderer)
	r.mu.Unlock()
}

func (r *Router) RenderPlayers(ctx context.Context, players []state.PlayerEntry) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var firstErr error
	for _, renderer := range r.renderers {
		if err := renderer.RenderPlayers(ctx, players); err != nil {
			r.logger.Warn("render: players push failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) RenderDice(ctx context.Context, counts map[int]int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var firstErr error
	for _, renderer := range r.renderers {
		if err := renderer.RenderDice(ctx, counts); err != nil {
			r.logger.Warn("render: dice push failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var firstErr error
	for _, renderer := range r.renderers {
		if err := renderer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
