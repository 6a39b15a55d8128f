package tally

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tabletally/tabletally/tally/internal/mcpkit"
)

// RegisterMCP registers the debug tools on an MCP server.
func (k *Keeper) RegisterMCP(srv *mcp.Server) {
	k.registerPlayersTool(srv)
	k.registerDiceTool(srv)
	k.registerBuildsTool(srv)
	k.registerStatsTool(srv)
	k.registerClearTool(srv)
}

func (k *Keeper) registerPlayersTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tabletally_players",
		Description: "Current per-player resource records in first-appearance order.",
		InputSchema: mcpkit.ObjectSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return k.PlayersSnapshot(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*mcpkit.DecodeResult, error) {
		return &mcpkit.DecodeResult{Request: nil}, nil
	}

	mcpkit.RegisterTool(srv, tool, endpoint, decode)
}

func (k *Keeper) registerDiceTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tabletally_dice",
		Description: "Dice roll histogram, sums 2 through 12.",
		InputSchema: mcpkit.ObjectSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return k.DiceCounts(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*mcpkit.DecodeResult, error) {
		return &mcpkit.DecodeResult{Request: nil}, nil
	}

	mcpkit.RegisterTool(srv, tool, endpoint, decode)
}

func (k *Keeper) registerBuildsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tabletally_builds",
		Description: "Build ledger: every placed piece with the resources actually spent.",
		InputSchema: mcpkit.ObjectSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return k.BuildLog(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*mcpkit.DecodeResult, error) {
		return &mcpkit.DecodeResult{Request: nil}, nil
	}

	mcpkit.RegisterTool(srv, tool, endpoint, decode)
}

func (k *Keeper) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tabletally_stats",
		Description: "Pipeline counters: candidate lines, dedup admissions, applied events, memory sizes.",
		InputSchema: mcpkit.ObjectSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return k.Stats(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*mcpkit.DecodeResult, error) {
		return &mcpkit.DecodeResult{Request: nil}, nil
	}

	mcpkit.RegisterTool(srv, tool, endpoint, decode)
}

func (k *Keeper) registerClearTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tabletally_clear",
		Description: "Reset all aggregates and the dedup memory. Use when the observed game restarts.",
		InputSchema: mcpkit.ObjectSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		k.Clear(ctx)
		return map[string]string{"status": "cleared"}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*mcpkit.DecodeResult, error) {
		return &mcpkit.DecodeResult{Request: nil}, nil
	}

	mcpkit.RegisterTool(srv, tool, endpoint, decode)
}
