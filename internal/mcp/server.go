package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"sprint-mcp/internal/config"
	"sprint-mcp/internal/report"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server holds the state for the MCP server.
type Server struct {
	assembler           *report.Assembler
	team                *config.Team
	enableMermaidCharts bool
	version             string
}

// NewServer creates a new MCP server over the report assembler.
func NewServer(cfg *config.AppConfig, assembler *report.Assembler, version string) *Server {
	team := cfg.Team
	if team == nil {
		team = config.DefaultTeam()
	}
	return &Server{
		assembler:           assembler,
		team:                team,
		enableMermaidCharts: cfg.EnableMermaidCharts,
		version:             version,
	}
}

// Protocol builds the MCP server with every tool registered.
func (s *Server) Protocol() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "sprint-mcp", Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// Start runs the MCP session over stdio until the client disconnects or ctx ends.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP Server starting Stdio loop")
	if err := s.Protocol().Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp session: %w", err)
	}
	return nil
}

// handle adapts a handler returning plain data into a typed MCP tool handler.
// Failures become tool error results so the client sees a message instead of
// a protocol error.
func handle[In any](name string, fn func(context.Context, In) (any, error)) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		data, err := fn(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("Tool call failed")
			return errorResult(err), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: formatResult(data)}},
		}, nil, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "No data: " + err.Error()}},
		IsError: true,
	}
}

func formatResult(data any) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}
