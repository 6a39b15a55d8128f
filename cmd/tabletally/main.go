// Command tabletally observes a browser board game's log feed and keeps
// live per-player resource tallies.
//
// Usage:
//
//	tabletally -config tabletally.yaml      # full config file
//	tabletally -url https://game.example    # quick start, stdout renderer
//	tabletally -config t.yaml -mcp          # also serve MCP tools on stdio
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/tabletally/tabletally/logwatch"
	"github.com/tabletally/tabletally/tally"
	"github.com/tabletally/tabletally/tally/render"
)

func main() {
	configPath := flag.String("config", "", "path to tabletally.yaml config file")
	singleURL := flag.String("url", "", "observe a single URL with defaults (stdout renderer)")
	consoleAddr := flag.String("console", "", "debug console listen address (overrides config)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools on stdio")
	headful := flag.Bool("headful", false, "run a visible browser (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *consoleAddr, *headful, *mcpStdio); err != nil {
		logger.Error("tabletally: fatal", "error", err)
		os.Exit(1)
	}
}

// appConfig is the full application configuration: one watched page, the
// interpretation pipeline, renderers, and the debug console.
type appConfig struct {
	Page struct {
		ID  string `yaml:"id"`
		URL string `yaml:"url"`
	} `yaml:"page"`
	Browser  logwatch.BrowserConfig `yaml:"browser"`
	Keywords []string               `yaml:"keywords"`
	Tally    tally.Config           `yaml:"tally"`

	// Renderers: stdout | webhook | overlay. Default: stdout.
	Renderers []rendererConfig `yaml:"renderers"`

	// Console is the debug console listen address. Empty = disabled.
	Console string `yaml:"console"`
}

type rendererConfig struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url"` // for webhook
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL, consoleAddr string, headful, mcpStdio bool) error {
	cfg, err := resolveConfig(configPath, singleURL)
	if err != nil {
		return err
	}
	if consoleAddr != "" {
		cfg.Console = consoleAddr
	}
	if headful {
		cfg.Browser.Headful = true
	}

	// Renderers available up front. The overlay needs a live tab and is
	// attached after the watcher starts.
	overlayWanted := false
	var renderers []render.Renderer
	for _, rc := range cfg.Renderers {
		switch rc.Type {
		case "stdout":
			renderers = append(renderers, render.NewStdout(nil))
		case "webhook":
			renderers = append(renderers, render.NewWebhook(rc.URL, logger))
		case "overlay":
			overlayWanted = true
		default:
			return fmt.Errorf("unknown renderer type %q", rc.Type)
		}
	}
	if len(renderers) == 0 && !overlayWanted {
		renderers = append(renderers, render.NewStdout(nil))
	}

	cfg.Tally.Keywords = cfg.Keywords
	keeper, err := tally.New(&cfg.Tally, logger, renderers...)
	if err != nil {
		return err
	}
	defer keeper.Close()

	watcher := logwatch.New(&logwatch.Config{
		PageID:   cfg.Page.ID,
		URL:      cfg.Page.URL,
		Keywords: cfg.Keywords,
		Browser:  cfg.Browser,
	}, logger, keeper.Sink())

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	if overlayWanted {
		keeper.AddRenderer(render.NewOverlay(watcher.Page(), logger))
	}

	// Surfaces start from the empty (or boot-derived) state.
	keeper.PushState(ctx)

	if cfg.Console != "" {
		go serveConsole(ctx, logger, cfg.Console, keeper)
	}

	if mcpStdio {
		srv := mcp.NewServer(&mcp.Implementation{Name: "tabletally", Version: "0.1.0"}, nil)
		keeper.RegisterMCP(srv)
		logger.Info("tabletally: serving MCP on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	logger.Info("tabletally: running", "url", cfg.Page.URL)
	<-ctx.Done()
	logger.Info("tabletally: shutting down")
	return nil
}

func serveConsole(ctx context.Context, logger *slog.Logger, addr string, keeper *tally.Keeper) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	keeper.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("tabletally: console listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("tabletally: console server", "error", err)
	}
}

func resolveConfig(configPath, singleURL string) (*appConfig, error) {
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		var cfg appConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if cfg.Page.URL == "" {
			return nil, fmt.Errorf("config: page.url is required")
		}
		return &cfg, nil
	}

	if singleURL != "" {
		cfg := &appConfig{}
		cfg.Page.ID = "game"
		cfg.Page.URL = singleURL
		return cfg, nil
	}

	fmt.Fprintln(os.Stderr, "usage: tabletally -config <file> | -url <url>")
	os.Exit(1)
	return nil, nil
}
