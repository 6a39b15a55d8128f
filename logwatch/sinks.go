package logwatch

import (
	"io"

	"github.com/tabletally/tabletally/logwatch/feed"
	"github.com/tabletally/tabletally/logwatch/internal/sink"
)

// NewStdoutSink creates a sink writing JSON lines to w (nil = os.Stdout).
func NewStdoutSink(w io.Writer) feed.Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a sink POSTing batches to the given URL.
func NewWebhookSink(url string) feed.Sink {
	return sink.NewWebhook(url)
}
