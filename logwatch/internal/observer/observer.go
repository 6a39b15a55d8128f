// Package observer injects a MutationObserver into the page and relays the
// candidate lines it reports back to Go through a CDP binding.
//
// All DOM reading happens in the page script at observation time: each
// reported line carries its own outer HTML and the outer HTML of its
// qualifying previous sibling, captured before virtualization can move or
// drop either node. The Go side never walks the live DOM.
package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"github.com/tabletally/tabletally/logwatch/feed"
	"github.com/tabletally/tabletally/logwatch/internal/browser"
)

//go:embed observer.js
var observerJS []byte

const bindingName = "__tabletally_feed"

// Observer manages the injected script for a single page.
type Observer struct {
	tab      *browser.Tab
	sink     feed.Sink
	keywords []string
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	// Sequence counter, monotonically increasing per page.
	seq atomic.Uint64
}

// Config for creating an Observer.
type Config struct {
	Tab      *browser.Tab
	Sink     feed.Sink
	Keywords []string
	Logger   *slog.Logger
}

// New creates an Observer for the given tab.
func New(cfg Config) *Observer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = feed.DefaultKeywords
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Observer{
		tab:      cfg.Tab,
		sink:     cfg.Sink,
		keywords: cfg.Keywords,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetContext allows the parent watcher to pass its context.
func (o *Observer) SetContext(ctx context.Context) {
	o.ctx, o.cancel = context.WithCancel(ctx)
}

// Start sets up the binding, injects the page script, and begins relaying.
// The script performs the boot enumeration immediately on install, so the
// first batch (phase "boot") arrives without any DOM activity.
func (o *Observer) Start() error {
	err := proto.RuntimeAddBinding{Name: bindingName}.Call(o.tab.Page)
	if err != nil {
		o.logger.Warn("observer: addBinding failed (may already exist)", "error", err)
	}

	go o.listenBinding()

	keywordsJSON, _ := json.Marshal(o.keywords)
	setup := fmt.Sprintf("window.__tabletally_keywords = %s;", keywordsJSON)
	if _, err := o.tab.Page.Eval(setup); err != nil {
		return fmt.Errorf("observer: set keywords: %w", err)
	}

	if _, err := o.tab.Page.Eval(string(observerJS)); err != nil {
		return fmt.Errorf("observer: inject script: %w", err)
	}

	o.logger.Info("observer: watching page", "url", o.tab.PageURL, "id", o.tab.PageID)
	return nil
}

// Stop stops relaying. The page script stays installed; its reports are
// simply no longer consumed.
func (o *Observer) Stop() {
	o.cancel()
}

// listenBinding receives reports from the page script via
// Runtime.bindingCalled. Events arrive in emission order and each batch is
// delivered to the sink before the next is read, which is what keeps the
// whole pipeline sequential.
func (o *Observer) listenBinding() {
	page := o.tab.Page
	page.Context(o.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}

		var payload struct {
			Phase string `json:"phase"`
			Lines []struct {
				HTML   string `json:"html"`
				Prev   string `json:"prev"`
				Origin string `json:"origin"`
			} `json:"lines"`
		}
		if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
			o.logger.Warn("observer: parse binding payload", "error", err)
			return
		}
		if len(payload.Lines) == 0 {
			return
		}

		lines := make([]feed.Line, len(payload.Lines))
		for i, l := range payload.Lines {
			lines[i] = feed.Line{
				HTML:     l.HTML,
				PrevHTML: l.Prev,
				Origin:   feed.Origin(l.Origin),
			}
		}

		batch := feed.Batch{
			ID:        uuid.NewString(),
			PageURL:   o.tab.PageURL,
			PageID:    o.tab.PageID,
			Seq:       o.seq.Add(1),
			Phase:     feed.Phase(payload.Phase),
			Lines:     lines,
			Timestamp: time.Now().UnixMilli(),
		}

		if err := o.sink.Send(o.ctx, batch); err != nil {
			o.logger.Error("observer: send batch failed", "error", err)
		}
	})()
}
