package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "channel-assistant",
	Short: "Ask questions about your Lightning channels in plain language",
	Long: `Channel Assistant answers natural language questions about the channels
of an LND node. It talks to the node through lncli.

Examples:
  channel-assistant query show me all my channels
  channel-assistant query which channels need attention?
  channel-assistant balance
  channel-assistant mcp --transport stdio
  channel-assistant serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (default: ./channel-assistant.{yaml,json,toml} if present)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Env files to load before reading configuration")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
