package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tabletally/tabletally/tally/internal/state"
)

// Webhook POSTs state pushes as JSON to a URL. Unlike the feed webhook
// sink, there is no retry: the next applied event re-pushes the full state
// anyway, so a missed delivery self-heals.
type Webhook struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhook creates a Webhook renderer targeting the given URL.
func NewWebhook(url string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (w *Webhook) RenderPlayers(ctx context.Context, players []state.PlayerEntry) error {
	return w.post(ctx, "players", players)
}

func (w *Webhook) RenderDice(ctx context.Context, counts map[int]int) error {
	return w.post(ctx, "dice", counts)
}

func (w *Webhook) Close() error { return nil }

func (w *Webhook) post(ctx context.Context, typ string, data any) error {
	body, err := json.Marshal(envelope{Type: typ, Data: data})
	if err != nil {
		return fmt.Errorf("render webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("render webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("render webhook: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("render webhook: status %d", resp.StatusCode)
	}
	return nil
}
