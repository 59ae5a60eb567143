package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brewgator/lightning-channel-assistant/internal/query"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query <question...>",
	Short: "Answer a question about your channels",
	Example: `  channel-assistant query show me all my channels
  channel-assistant query "how healthy are my channels?" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the full response as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.svc.Run(cmd.Context(), strings.Join(args, " "))
	if err := printResponse(cmd.OutOrStdout(), resp, queryJSON); err != nil {
		return err
	}
	if resp.Failed() {
		return fmt.Errorf("query failed at stage %s", resp.Error.Stage)
	}
	return nil
}

func printResponse(w io.Writer, resp query.Response, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err := fmt.Fprintln(w, resp.Text)
	return err
}
