package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewgator/lightning-channel-assistant/internal/analytics"
	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/internal/intent"
	"github.com/brewgator/lightning-channel-assistant/internal/query"
	"github.com/brewgator/lightning-channel-assistant/internal/report"
	"github.com/brewgator/lightning-channel-assistant/pkg/db"
	"github.com/brewgator/lightning-channel-assistant/pkg/testutils"
)

func snapshot(channels ...channel.Channel) *report.Result {
	criteria := analytics.DefaultHealthCriteria()
	return &report.Result{
		Channels: channels,
		Summary:  analytics.Summarize(channels, criteria),
		Criteria: criteria,
	}
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"query", "balance", "mcp", "serve", "history"} {
		assert.Contains(t, names, want)
	}
}

func TestShowChannelBalances(t *testing.T) {
	a := testutils.Channel("pkA", 2000000, 1500000, 500000, true)
	a.RemoteAlias = "ACINQ"
	b := testutils.Channel("02aabbccddeeff00112233", 500000, 0, 500000, false)
	b.Private = true

	var buf bytes.Buffer
	showChannelBalances(&buf, snapshot(a, b))
	out := buf.String()

	assert.Contains(t, out, "Channel Liquidity Overview")
	assert.Contains(t, out, "🟢 ACINQ:")
	assert.Contains(t, out, "|"+strings.Repeat("#", 22)+strings.Repeat("-", 8)+"| 1.5M/500K")
	assert.Contains(t, out, "🔴 02aabbccddee...:")
	assert.Contains(t, out, "|"+strings.Repeat("-", 30)+"| 0/500K")
	assert.Contains(t, out, "Capacity: 2.0M │ Local: 75.0% │ Public")
	assert.Contains(t, out, "Private (Inactive)")
	assert.Contains(t, out, "📊 Summary: 1/2 active channels | Total: 2.5M | Local: 1.5M | Remote: 1.0M")
	assert.Contains(t, out, "🩺 Health: 1 healthy, 1 need attention")
}

func TestShowChannelBalancesEmpty(t *testing.T) {
	var buf bytes.Buffer
	showChannelBalances(&buf, snapshot())
	assert.Equal(t, "No channels found\n", buf.String())
}

func TestDisplayChannelTruncatesLongAliases(t *testing.T) {
	ch := testutils.Channel("pkA", 1000, 500, 500, true)
	ch.RemoteAlias = "ThisIsAVeryLongLightningNodeAlias"

	var buf bytes.Buffer
	displayChannel(&buf, ch)
	assert.Contains(t, buf.String(), "ThisIsAVeryLongLigh...:")
}

func TestBalanceBarZeroCapacity(t *testing.T) {
	ch := testutils.Channel("pkA", 0, 0, 0, true)
	assert.Equal(t, strings.Repeat("-", barWidth), balanceBar(ch))
}

func TestPrintResponse(t *testing.T) {
	resp := query.Response{
		ID:     "req-1",
		Type:   string(intent.ChannelHealth),
		Intent: intent.ChannelHealth,
		Query:  "how healthy are my channels?",
		Text:   "Channel health: 1 healthy, 0 unhealthy out of 1 channel.",
		Data:   map[string]any{},
	}

	var text bytes.Buffer
	require.NoError(t, printResponse(&text, resp, false))
	assert.Equal(t, resp.Text+"\n", text.String())

	var raw bytes.Buffer
	require.NoError(t, printResponse(&raw, resp, true))
	var decoded query.Response
	require.NoError(t, json.Unmarshal(raw.Bytes(), &decoded))
	assert.Equal(t, "req-1", decoded.ID)
	assert.Equal(t, intent.ChannelHealth, decoded.Intent)
	assert.Equal(t, resp.Text, decoded.Text)
}

func TestShowHistory(t *testing.T) {
	var buf bytes.Buffer
	showHistory(&buf, nil)
	assert.Equal(t, "No queries recorded yet\n", buf.String())

	buf.Reset()
	showHistory(&buf, []db.QueryRecord{
		{Timestamp: time.Now(), Query: "list my channels", Intent: "channel_list", ResultType: "channel_list", ChannelCount: 3, DurationMs: 12},
		{Timestamp: time.Now(), Query: "how healthy?", Intent: "channel_health", ResultType: "error", Error: "lncli not found"},
	})
	out := buf.String()
	assert.Contains(t, out, "INTENT")
	assert.Contains(t, out, `"list my channels"`)
	assert.Contains(t, out, "channel_list")
	assert.Contains(t, out, "❌ lncli not found")
}
