package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brewgator/lightning-channel-assistant/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON query API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []api.Option{api.WithLogger(a.logger), api.WithPinger(a.client)}
	if a.history != nil {
		opts = append(opts, api.WithHistory(a.history))
	}
	server := api.NewServer(a.svc, opts...)

	addr := a.cfg.HTTP.Addr()
	fmt.Fprintf(cmd.ErrOrStderr(), "🚀 Channel Assistant API starting on http://%s\n", addr)
	if a.history != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "📊 History database: %s\n", a.cfg.History.DBPath)
	}

	return server.ListenAndServe(cmd.Context(), addr, a.cfg.HTTP.AllowedOrigins)
}
