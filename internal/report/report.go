// Package report renders channel analytics as natural-language text, one
// renderer per query intent. All renderers are pure and deterministic.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brewgator/lightning-channel-assistant/internal/analytics"
	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/internal/intent"
	"github.com/brewgator/lightning-channel-assistant/pkg/utils"
)

const (
	topByCapacity = 5
	topLiquidity  = 3
)

// ErrNoRenderer is returned by Render for intents without a channel report
var ErrNoRenderer = errors.New("no renderer for intent")

// Result is the data a report is rendered from
type Result struct {
	Channels []channel.Channel       `json:"channels"`
	Summary  analytics.Summary        `json:"summary"`
	Criteria analytics.HealthCriteria `json:"criteria"`
}

// Render dispatches to the renderer for t
func Render(t intent.Type, r Result) (string, error) {
	switch t {
	case intent.ChannelList:
		return FormatList(r), nil
	case intent.ChannelHealth:
		return FormatHealth(r), nil
	case intent.ChannelLiquidity:
		return FormatLiquidity(r), nil
	case intent.ChannelUnhealthy:
		return FormatUnhealthy(r), nil
	case intent.Unknown:
		return "", fmt.Errorf("%w: %s", ErrNoRenderer, t)
	default:
		return "", fmt.Errorf("%w: %q", ErrNoRenderer, string(t))
	}
}

// FormatList reports totals and the largest channels
func FormatList(r Result) string {
	if len(r.Channels) == 0 {
		return "You don't have any Lightning channels yet. Open a channel to a well-connected peer to start sending and receiving payments."
	}

	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "You have %s with a total capacity of %s.\n",
		plural(len(r.Channels), "channel"), utils.FormatSatsWithBTC(s.TotalCapacity))
	fmt.Fprintf(&b, "%d active, %d inactive.\n", s.ActiveChannels, s.InactiveChannels)

	top := byCapacity(r.Channels)
	if len(top) > topByCapacity {
		top = top[:topByCapacity]
	}
	fmt.Fprintf(&b, "\nTop %s by capacity:\n", plural(len(top), "channel"))
	for i, ch := range top {
		fmt.Fprintf(&b, "%d. %s: %s (%s)\n", i+1, ch.DisplayName(), utils.FormatSats(ch.Capacity), status(ch))
	}
	if len(r.Channels) > len(top) {
		fmt.Fprintf(&b, "...and %d more.\n", len(r.Channels)-len(top))
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatHealth reports healthy/unhealthy counts, inactive channels and
// active channels outside the criteria band
func FormatHealth(r Result) string {
	if len(r.Channels) == 0 {
		return "You don't have any channels to check yet. Channel health is reported once you have at least one open channel."
	}

	s := r.Summary
	inactive, imbalanced := partitionUnhealthy(r.Channels, r.Criteria)

	var b strings.Builder
	fmt.Fprintf(&b, "Channel health: %d healthy, %d unhealthy out of %s.\n",
		s.HealthyChannels, s.UnhealthyChannels, plural(len(r.Channels), "channel"))

	if len(inactive) == 0 && len(imbalanced) == 0 {
		fmt.Fprintf(&b, "All channels are active with local balance within %s.\n", band(r.Criteria))
		return strings.TrimRight(b.String(), "\n")
	}

	if len(inactive) > 0 {
		fmt.Fprintf(&b, "\nInactive channels (%d):\n", len(inactive))
		for _, ch := range inactive {
			fmt.Fprintf(&b, "- %s: %s capacity\n", ch.DisplayName(), utils.FormatSats(ch.Capacity))
		}
	}

	if len(imbalanced) > 0 {
		fmt.Fprintf(&b, "\nImbalanced channels, local balance outside %s (%d):\n", band(r.Criteria), len(imbalanced))
		for _, ch := range imbalanced {
			ratio, _ := ch.LocalRatio()
			fmt.Fprintf(&b, "- %s: %s local balance\n", ch.DisplayName(), utils.FormatPercent(ratio*100))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatLiquidity reports the local/remote split and the most and least
// balanced active channels
func FormatLiquidity(r Result) string {
	if len(r.Channels) == 0 {
		return "There is no liquidity to report: you don't have any channels yet."
	}

	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Liquidity across %s:\n", plural(len(r.Channels), "channel"))
	fmt.Fprintf(&b, "Local balance: %s (%s)\n", utils.FormatSats(s.TotalLocalBalance), utils.FormatPercent(s.LocalPercent()))
	fmt.Fprintf(&b, "Remote balance: %s (%s)\n", utils.FormatSats(s.TotalRemoteBalance), utils.FormatPercent(s.RemotePercent()))
	fmt.Fprintf(&b, "Total capacity: %s\n", utils.FormatSatsWithBTC(s.TotalCapacity))

	ranked := mostBalancedFirst(activeWithCapacity(r.Channels))
	if len(ranked) == 0 {
		b.WriteString("\nNone of your channels are active, so there is no usable liquidity right now.")
		return b.String()
	}

	balanced := ranked
	if len(balanced) > topLiquidity {
		balanced = balanced[:topLiquidity]
	}
	b.WriteString("\nMost balanced channels:\n")
	for _, ch := range balanced {
		fmt.Fprintf(&b, "- %s: %s\n", ch.DisplayName(), split(ch))
	}

	imbalanced := mostImbalancedFirst(ranked)
	if len(imbalanced) > topLiquidity {
		imbalanced = imbalanced[:topLiquidity]
	}
	b.WriteString("\nMost imbalanced channels:\n")
	for _, ch := range imbalanced {
		fmt.Fprintf(&b, "- %s: %s\n", ch.DisplayName(), split(ch))
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatUnhealthy lists channels needing attention with advice
func FormatUnhealthy(r Result) string {
	if len(r.Channels) == 0 {
		return "You don't have any channels yet, so there is nothing that needs attention."
	}

	s := r.Summary
	if s.UnhealthyChannels == 0 {
		return fmt.Sprintf("All %s healthy: every channel is active with local balance within %s.",
			pluralVerb(len(r.Channels), "channel"), band(r.Criteria))
	}

	inactive, imbalanced := partitionUnhealthy(r.Channels, r.Criteria)

	var b strings.Builder
	fmt.Fprintf(&b, "%d of %s need attention.\n", s.UnhealthyChannels, plural(len(r.Channels), "channel"))

	if len(inactive) > 0 {
		fmt.Fprintf(&b, "\nInactive channels (%d):\n", len(inactive))
		for _, ch := range inactive {
			fmt.Fprintf(&b, "- %s: %s capacity, %s local\n",
				ch.DisplayName(), utils.FormatSats(ch.Capacity), utils.FormatSats(ch.LocalBalance))
		}
	}

	var depletedLocal, depletedRemote bool
	if len(imbalanced) > 0 {
		fmt.Fprintf(&b, "\nImbalanced channels (%d):\n", len(imbalanced))
		for _, ch := range imbalanced {
			kind := imbalanceKind(ch, r.Criteria)
			switch kind {
			case depletedLocalLabel:
				depletedLocal = true
			case depletedRemoteLabel:
				depletedRemote = true
			}
			ratio, _ := ch.LocalRatio()
			fmt.Fprintf(&b, "- %s: %s local balance (%s)\n", ch.DisplayName(), utils.FormatPercent(ratio*100), kind)
		}
	}

	b.WriteString("\nRecommendations:\n")
	if len(inactive) > 0 {
		b.WriteString(adviceInactive)
	}
	if depletedLocal {
		b.WriteString(adviceDepletedLocal)
	}
	if depletedRemote {
		b.WriteString(adviceDepletedRemote)
	}

	return strings.TrimRight(b.String(), "\n")
}

const (
	depletedLocalLabel  = "depleted local balance"
	depletedRemoteLabel = "depleted remote balance"

	adviceInactive = "- Inactive channels: check that the peer is online and reconnect with `lncli connect`. " +
		"Channels that stay inactive for days lock up capital and are candidates for a cooperative close.\n"
	adviceDepletedLocal = "- Depleted local balance: these channels can't send payments. " +
		"Rebalance from a channel with excess local balance or use Loop In to restore outbound liquidity.\n"
	adviceDepletedRemote = "- Depleted remote balance: these channels can't receive payments. " +
		"Spend through them, rebalance toward other channels or use Loop Out to restore inbound liquidity.\n"
)

// partitionUnhealthy splits unhealthy channels into inactive ones and active
// ones outside the criteria band, preserving input order
func partitionUnhealthy(channels []channel.Channel, criteria analytics.HealthCriteria) (inactive, imbalanced []channel.Channel) {
	for _, ch := range channels {
		if analytics.IsHealthy(ch, criteria) {
			continue
		}
		if !ch.Active {
			inactive = append(inactive, ch)
		} else {
			imbalanced = append(imbalanced, ch)
		}
	}
	return inactive, imbalanced
}

func imbalanceKind(ch channel.Channel, criteria analytics.HealthCriteria) string {
	ratio, _ := ch.LocalRatio()
	if ratio < criteria.MinLocalRatio {
		return depletedLocalLabel
	}
	return depletedRemoteLabel
}

func activeWithCapacity(channels []channel.Channel) []channel.Channel {
	var out []channel.Channel
	for _, ch := range channels {
		if ch.Active && ch.Capacity > 0 {
			out = append(out, ch)
		}
	}
	return out
}

// byCapacity sorts a copy by capacity descending; ties keep input order
func byCapacity(channels []channel.Channel) []channel.Channel {
	sorted := append([]channel.Channel(nil), channels...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Capacity > sorted[j].Capacity
	})
	return sorted
}

// mostBalancedFirst sorts a copy by distance from an even split; ties keep input order
func mostBalancedFirst(channels []channel.Channel) []channel.Channel {
	sorted := append([]channel.Channel(nil), channels...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := analytics.Imbalance(sorted[i])
		b, _ := analytics.Imbalance(sorted[j])
		return a < b
	})
	return sorted
}

// mostImbalancedFirst is the inverse ranking; ties still keep input order
func mostImbalancedFirst(ranked []channel.Channel) []channel.Channel {
	sorted := append([]channel.Channel(nil), ranked...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := analytics.Imbalance(sorted[i])
		b, _ := analytics.Imbalance(sorted[j])
		return a > b
	})
	return sorted
}

func split(ch channel.Channel) string {
	if ch.Capacity <= 0 {
		return "no capacity"
	}
	local := float64(ch.LocalBalance) / float64(ch.Capacity) * 100
	remote := float64(ch.RemoteBalance) / float64(ch.Capacity) * 100
	return fmt.Sprintf("%s local / %s remote", utils.FormatPercent(local), utils.FormatPercent(remote))
}

func status(ch channel.Channel) string {
	if ch.Active {
		return "active"
	}
	return "inactive"
}

func band(c analytics.HealthCriteria) string {
	return fmt.Sprintf("%.0f%%-%.0f%%", c.MinLocalRatio*100, c.MaxLocalRatio*100)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func pluralVerb(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s is", n, noun)
	}
	return fmt.Sprintf("%d %ss are", n, noun)
}
