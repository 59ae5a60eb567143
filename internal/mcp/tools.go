package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/brewgator/lightning-channel-assistant/internal/intent"
	"github.com/brewgator/lightning-channel-assistant/internal/query"
)

func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolQueryChannels(),
		s.toolIntent("list_channels", intent.ChannelList,
			"List the node's channels with total capacity and the largest channels by capacity."),
		s.toolIntent("channel_health", intent.ChannelHealth,
			"Report how many channels are healthy and list inactive or imbalanced channels."),
		s.toolIntent("channel_liquidity", intent.ChannelLiquidity,
			"Describe local and remote liquidity and the most balanced and imbalanced channels."),
		s.toolIntent("unhealthy_channels", intent.ChannelUnhealthy,
			"List channels that need attention and recommend what to do about them."),
	}
}

func (s *Server) toolQueryChannels() mcpsrv.ServerTool {
	tool := mcplib.NewTool("query_channels",
		mcplib.WithDescription(`Answer a natural language question about the node's Lightning channels.

Examples: "show me all my channels", "how healthy are my channels?",
"what does my liquidity look like?", "which channels need attention?"`),
		mcplib.WithString("query",
			mcplib.Description("The question to answer."),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleQueryChannels}
}

func (s *Server) handleQueryChannels(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	text, ok := stringArg(req, "query")
	if !ok || strings.TrimSpace(text) == "" {
		return resultErr(errors.New("query_channels: query is required")), nil
	}

	s.logger.DebugContext(ctx, "mcp: query_channels", "query", text)
	return resultResponse(s.q.Run(ctx, text))
}

func (s *Server) toolIntent(name string, t intent.Type, description string) mcpsrv.ServerTool {
	tool := mcplib.NewTool(name,
		mcplib.WithDescription(description),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	handler := func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		s.logger.DebugContext(ctx, "mcp: "+name)
		return resultResponse(s.q.RunIntent(ctx, t, name))
	}
	return mcpsrv.ServerTool{Tool: tool, Handler: handler}
}

// resultResponse returns the answer text followed by the full response as
// JSON. Failed queries set IsError.
func resultResponse(resp query.Response) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.NewTextContent(resp.Text),
			mcplib.NewTextContent(string(data)),
		},
		IsError: resp.Failed(),
	}, nil
}

func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// stringArg extracts a string argument. Returns ("", false) when absent.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}
