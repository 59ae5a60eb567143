package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/internal/report"
	"github.com/brewgator/lightning-channel-assistant/pkg/utils"
)

const (
	barWidth     = 30
	maxNameWidth = 25
)

var balanceCmd = &cobra.Command{
	Use:     "balance",
	Aliases: []string{"bal"},
	Short:   "Show visual channel balances",
	Args:    cobra.NoArgs,
	RunE:    runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.svc.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	showChannelBalances(cmd.OutOrStdout(), result)
	return nil
}

// showChannelBalances displays visual channel balance overview
func showChannelBalances(w io.Writer, r *report.Result) {
	if len(r.Channels) == 0 {
		fmt.Fprintln(w, "No channels found")
		return
	}

	fmt.Fprintln(w, "\n🔋 Channel Liquidity Overview")
	fmt.Fprintln(w, strings.Repeat("━", 80))

	for _, ch := range r.Channels {
		displayChannel(w, ch)
	}

	s := r.Summary
	fmt.Fprintln(w, strings.Repeat("━", 80))
	fmt.Fprintf(w, "📊 Summary: %d/%d active channels | Total: %s | Local: %s | Remote: %s\n",
		s.ActiveChannels, s.TotalChannels(),
		utils.FormatSatsCompact(s.TotalCapacity),
		utils.FormatSatsCompact(s.TotalLocalBalance),
		utils.FormatSatsCompact(s.TotalRemoteBalance))
	fmt.Fprintf(w, "🩺 Health: %d healthy, %d need attention\n\n", s.HealthyChannels, s.UnhealthyChannels)
}

// displayChannel prints "name: |#####-----| local/remote" plus a detail line
func displayChannel(w io.Writer, ch channel.Channel) {
	name := ch.DisplayName()
	if r := []rune(name); len(r) > maxNameWidth-3 {
		name = string(r[:maxNameWidth-6]) + "..."
	}

	status := "🟢"
	if !ch.Active {
		status = "🔴"
	}

	fmt.Fprintf(w, "%s %-*s |%s| %s/%s\n",
		status,
		maxNameWidth, name+":",
		balanceBar(ch),
		utils.FormatSatsCompact(ch.LocalBalance),
		utils.FormatSatsCompact(ch.RemoteBalance))

	ratio, _ := ch.LocalRatio()
	fmt.Fprintf(w, "   %*s  Capacity: %s │ Local: %s │ %s\n\n",
		maxNameWidth, "",
		utils.FormatSatsCompact(ch.Capacity),
		utils.FormatPercent(ratio*100),
		channelStatus(ch))
}

// balanceBar uses # for local balance and - for remote
func balanceBar(ch channel.Channel) string {
	localWidth := 0
	if ratio, ok := ch.LocalRatio(); ok {
		localWidth = min(int(ratio*barWidth), barWidth)
	}
	return strings.Repeat("#", localWidth) + strings.Repeat("-", barWidth-localWidth)
}

func channelStatus(ch channel.Channel) string {
	status := "Public"
	if ch.Private {
		status = "Private"
	}
	if !ch.Active {
		status += " (Inactive)"
	}
	return status
}
