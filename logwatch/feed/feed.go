// Package feed defines the structured types emitted by logwatch.
// These are the public API contract: any consumer (tally, custom pipelines)
// imports this package to receive candidate log lines.
package feed

import "context"

// Origin identifies which tree a candidate line was observed in.
type Origin string

const (
	OriginMain   Origin = "main"   // the top-level document
	OriginShadow Origin = "shadow" // an open shadow root
	OriginFrame  Origin = "frame"  // a same-origin embedded frame
)

// Phase distinguishes the one-time boot enumeration from live observation.
type Phase string

const (
	PhaseBoot Phase = "boot" // initial enumeration of already-present nodes
	PhaseLive Phase = "live" // insertions observed after boot
)

// Line is one candidate log line, captured as serialised HTML at observation
// time. PrevHTML is the nearest preceding sibling that also qualified as a
// candidate, empty when none exists. Consumers re-derive text and images
// from the HTML; nothing here is retained by the watcher.
type Line struct {
	HTML     string `json:"html"`
	PrevHTML string `json:"prev_html,omitempty"`
	Origin   Origin `json:"origin,omitempty"`
}

// Batch is the atomic unit emitted by the watcher. Lines appear in document
// order (boot) or callback-delivery order (live); batches carry a strictly
// increasing Seq per page so consumers can detect gaps.
type Batch struct {
	ID        string `json:"id"`
	PageURL   string `json:"page_url"`
	PageID    string `json:"page_id"`
	Seq       uint64 `json:"seq"`
	Phase     Phase  `json:"phase"`
	Lines     []Line `json:"lines"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds at emit
}

// Sink is the output interface. Implementations deliver batches to
// different backends (stdout, webhook, in-process callback).
type Sink interface {
	Send(ctx context.Context, batch Batch) error
	Close() error
}

// DefaultKeywords is the broad topic filter a node's text must match to
// qualify as a candidate line. It bounds the volume of nodes fed to
// fingerprinting and parsing; it is not a correctness boundary.
var DefaultKeywords = []string{
	"rolled",
	"got",
	"gave",
	"placed",
	"built",
	"bought",
	"discarded",
	"stole",
	"took from bank",
	"received starting resources",
}

// BatchFunc is called for each batch (in-process, zero serialisation).
type BatchFunc func(ctx context.Context, batch Batch) error

// Callback delivers batches via Go function calls. This is the local path:
// when logwatch and its consumer live in the same binary, batches are
// in-memory function calls with no serialisation overhead.
type Callback struct {
	onBatch BatchFunc
}

// NewCallback creates a Callback sink. A nil handler discards batches.
func NewCallback(onBatch BatchFunc) *Callback {
	return &Callback{onBatch: onBatch}
}

func (c *Callback) Send(ctx context.Context, batch Batch) error {
	if c.onBatch != nil {
		return c.onBatch(ctx, batch)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
