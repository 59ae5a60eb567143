package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/brewgator/lightning-channel-assistant/pkg/db"
)

var (
	historyLimit     int
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently answered questions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of queries to show")
	historyCmd.Flags().IntVar(&historyPruneDays, "prune-days", 0, "Delete queries older than this many days before listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.history == nil {
		return errors.New("query history is disabled (set history.enabled)")
	}

	out := cmd.OutOrStdout()
	if historyPruneDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -historyPruneDays)
		n, err := a.history.DeleteQueryRecordsBefore(cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		fmt.Fprintf(out, "🧹 Deleted %d queries older than %d days\n", n, historyPruneDays)
	}

	records, err := a.history.GetRecentQueryRecords(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	showHistory(out, records)
	return nil
}

func showHistory(w io.Writer, records []db.QueryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No queries recorded yet")
		return
	}

	fmt.Fprintf(w, "%-20s %-18s %8s %7s  %s\n", "TIME", "INTENT", "CHANNELS", "MS", "QUERY")
	for _, r := range records {
		marker := ""
		if r.Error != "" {
			marker = "  ❌ " + r.Error
		}
		fmt.Fprintf(w, "%-20s %-18s %8d %7d  %q%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Intent,
			r.ChannelCount,
			r.DurationMs,
			r.Query,
			marker)
	}
}
