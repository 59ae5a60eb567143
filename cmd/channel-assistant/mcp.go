package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brewgator/lightning-channel-assistant/internal/config"
	"github.com/brewgator/lightning-channel-assistant/internal/mcp"
)

var mcpTransport string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing channel questions as tools",
	Long: `Start the Model Context Protocol (MCP) server.

The server exposes the following tools:
  - query_channels: answer a natural language question
  - list_channels: list channels by capacity
  - channel_health: healthy and unhealthy channel counts
  - channel_liquidity: local and remote liquidity
  - unhealthy_channels: channels that need attention

With --transport stdio (default) the server speaks JSON-RPC on stdin/stdout
and logs to stderr. With --transport http it listens on mcp.addr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "", "Transport: stdio or http (default from mcp.transport)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	transport := a.cfg.MCP.Transport
	if mcpTransport != "" {
		transport = mcpTransport
	}

	server := mcp.New(a.svc, a.logger)
	switch transport {
	case config.TransportStdio:
		return server.ServeStdio(cmd.Context())
	case config.TransportHTTP:
		return server.ServeHTTP(cmd.Context(), a.cfg.MCP.Addr)
	default:
		return fmt.Errorf("unknown transport %q, expected %q or %q", transport, config.TransportStdio, config.TransportHTTP)
	}
}
