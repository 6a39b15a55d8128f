package render

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/tabletally/tabletally/tally/internal/state"
)

// Stdout writes state pushes as JSON lines to an io.Writer (default
// os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout renderer. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) RenderPlayers(_ context.Context, players []state.PlayerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "players", Data: players})
}

func (s *Stdout) RenderDice(_ context.Context, counts map[int]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "dice", Data: counts})
}

func (s *Stdout) Close() error { return nil }
