// Package logwatch observes a live game page and emits its log feed.
//
// logwatch observes, it does not interpret. Candidate lines are shipped as
// raw HTML batches to sinks (stdout, webhook, callback) for consumers like
// tally to process. Whatever renders the lines (framework, virtualization,
// shadow DOM, same-origin frames) is invisible to consumers; the feed
// contract is the only coupling.
package logwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"

	"github.com/tabletally/tabletally/logwatch/feed"
	"github.com/tabletally/tabletally/logwatch/internal/browser"
	"github.com/tabletally/tabletally/logwatch/internal/observer"
	"github.com/tabletally/tabletally/logwatch/internal/sink"
)

// Watcher is the top-level orchestrator. It manages the browser, the page
// observer, and the sinks. Create one per observed page.
type Watcher struct {
	cfg    *Config
	mgr    *browser.Manager
	sinkR  *sink.Router
	mu     sync.Mutex
	tab    *browser.Tab
	obs    *observer.Observer
	logger *slog.Logger
}

// New creates a Watcher from configuration.
func New(cfg *Config, logger *slog.Logger, sinks ...feed.Sink) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Headful:          cfg.Browser.Headful,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Logger:           logger,
	})

	return &Watcher{
		cfg:    cfg,
		mgr:    mgr,
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
	}
}

// Start launches the browser, opens the page, and begins observing. The
// boot enumeration batch arrives on the sinks before Start returns control
// to the page's own activity.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.mgr.Start(ctx); err != nil {
		return fmt.Errorf("logwatch: start browser: %w", err)
	}

	tab, err := browser.OpenTab(ctx, w.mgr, w.cfg.URL, w.cfg.PageID)
	if err != nil {
		return fmt.Errorf("logwatch: open tab: %w", err)
	}
	w.tab = tab

	obs := observer.New(observer.Config{
		Tab:      tab,
		Sink:     w.sinkR,
		Keywords: w.cfg.Keywords,
		Logger:   w.logger,
	})
	obs.SetContext(ctx)

	if err := obs.Start(); err != nil {
		tab.Close()
		return fmt.Errorf("logwatch: start observer: %w", err)
	}
	w.obs = obs

	w.logger.Info("logwatch: observing page", "url", w.cfg.URL, "id", w.cfg.PageID)
	return nil
}

// Page returns the observed Rod page, or nil before Start. Consumers use
// it to attach in-page surfaces like the overlay renderer.
func (w *Watcher) Page() *rod.Page {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tab == nil {
		return nil
	}
	return w.tab.Page
}

// Stop gracefully shuts down the observer, the tab, and the browser.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.obs != nil {
		w.obs.Stop()
		w.obs = nil
	}
	if w.tab != nil {
		w.tab.Close()
		w.tab = nil
	}
	w.sinkR.Close()
	w.mgr.Close()
}
