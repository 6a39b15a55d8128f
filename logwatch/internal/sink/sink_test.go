package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tabletally/tabletally/logwatch/feed"
)

func testBatch() feed.Batch {
	return feed.Batch{
		ID:     "b1",
		PageID: "game",
		Seq:    1,
		Phase:  feed.PhaseLive,
		Lines:  []feed.Line{{HTML: "<div>Bob rolled</div>", Origin: feed.OriginMain}},
	}
}

func TestStdout_WritesEnvelope(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)

	if err := s.Send(context.Background(), testBatch()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var env struct {
		Type string     `json:"type"`
		Data feed.Batch `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "batch" {
		t.Errorf("type = %q, want batch", env.Type)
	}
	if env.Data.ID != "b1" || len(env.Data.Lines) != 1 {
		t.Errorf("data = %+v", env.Data)
	}
}

func TestWebhook_Delivers(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	if err := w.Send(context.Background(), testBatch()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestWebhook_RetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookRetries(2))
	if err := w.Send(context.Background(), testBatch()); err != nil {
		t.Fatalf("Send after retry: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

type flakySink struct {
	err   error
	sends int
}

func (f *flakySink) Send(context.Context, feed.Batch) error {
	f.sends++
	return f.err
}

func (f *flakySink) Close() error { return nil }

func TestRouter_FanOutContinuesPastErrors(t *testing.T) {
	bad := &flakySink{err: errors.New("down")}
	good := &flakySink{}
	r := NewRouter(nil, bad, good)

	err := r.Send(context.Background(), testBatch())
	if err == nil {
		t.Fatal("expected first error to propagate")
	}
	if bad.sends != 1 || good.sends != 1 {
		t.Errorf("sends = (%d, %d), want (1, 1)", bad.sends, good.sends)
	}
}
