// Package mcp exposes the channel query pipeline as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/brewgator/lightning-channel-assistant/internal/intent"
	"github.com/brewgator/lightning-channel-assistant/internal/query"
)

const (
	serverName    = "lightning-channel-assistant"
	serverVersion = "1.0.0"
)

const instructions = `You are connected to a Lightning Network node assistant.

Use query_channels with a natural language question about the node's channels,
or call one of the direct tools (list_channels, channel_health,
channel_liquidity, unhealthy_channels) when the kind of answer is already known.

Every tool returns a human readable answer followed by the same answer as JSON.
All data is read-only. Amounts are in satoshis.
`

// Querier answers channel questions
type Querier interface {
	Run(ctx context.Context, text string) query.Response
	RunIntent(ctx context.Context, t intent.Type, text string) query.Response
}

// Server wraps an MCP server around a Querier
type Server struct {
	mcp    *mcpsrv.MCPServer
	q      Querier
	logger *slog.Logger
}

// New creates the MCP server with all tools registered
func New(q Querier, lg *slog.Logger) *Server {
	if lg == nil {
		lg = slog.Default()
	}
	s := &Server{
		q:      q,
		logger: lg,
	}

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions),
	)
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}

	s.mcp = mcpServer
	return s
}

// ServeStdio runs the server over stdin/stdout until ctx is cancelled
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, in, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the server as a Streamable HTTP endpoint on addr until ctx
// is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
	)

	s.logger.InfoContext(ctx, "mcp server listening on http", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "mcp server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
