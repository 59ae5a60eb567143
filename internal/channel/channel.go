// Package channel holds the per-query channel model built from an lncli snapshot.
package channel

import (
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
)

// UnknownAlias is used when a peer's alias could not be resolved
const UnknownAlias = "Unknown"

// Channel is a payment channel to a remote peer
type Channel struct {
	ChanID        string         `json:"chan_id,omitempty"`
	ChannelPoint  string         `json:"channel_point,omitempty"`
	RemotePubkey  string         `json:"remote_pubkey"`
	RemoteAlias   string         `json:"remote_alias,omitempty"`
	Capacity      btcutil.Amount `json:"capacity"`
	LocalBalance  btcutil.Amount `json:"local_balance"`
	RemoteBalance btcutil.Amount `json:"remote_balance"`
	Active        bool           `json:"active"`
	Private       bool           `json:"private"`
}

// FromRaw converts an lncli channel record into a Channel
func FromRaw(raw lnd.Channel) (Channel, error) {
	capacity, err := parseSats(raw.Capacity)
	if err != nil {
		return Channel{}, fmt.Errorf("channel %s: failed to parse capacity: %w", raw.ChanID, err)
	}
	local, err := parseSats(raw.LocalBalance)
	if err != nil {
		return Channel{}, fmt.Errorf("channel %s: failed to parse local balance: %w", raw.ChanID, err)
	}
	remote, err := parseSats(raw.RemoteBalance)
	if err != nil {
		return Channel{}, fmt.Errorf("channel %s: failed to parse remote balance: %w", raw.ChanID, err)
	}

	return Channel{
		ChanID:        raw.ChanID,
		ChannelPoint:  normalizeChannelPoint(raw.ChannelPoint),
		RemotePubkey:  raw.RemotePubkey,
		Capacity:      capacity,
		LocalBalance:  local,
		RemoteBalance: remote,
		Active:        raw.Active,
		Private:       raw.Private,
	}, nil
}

// FromRawList converts a whole listchannels snapshot. A nil snapshot yields
// an empty, non-nil list.
func FromRawList(raw []lnd.Channel) ([]Channel, error) {
	channels := make([]Channel, 0, len(raw))
	for _, r := range raw {
		ch, err := FromRaw(r)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// parseSats parses an lncli amount string. lncli omits zero amounts in some
// versions, so an empty string counts as zero.
func parseSats(s string) (btcutil.Amount, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount %d", v)
	}
	return btcutil.Amount(v), nil
}

// normalizeChannelPoint round-trips a txid:index string through wire.OutPoint.
// Unparseable values are carried through untouched.
func normalizeChannelPoint(cp string) string {
	if cp == "" {
		return ""
	}
	op, err := wire.NewOutPointFromString(cp)
	if err != nil {
		return cp
	}
	return op.String()
}

// LocalRatio returns LocalBalance/Capacity, or false when capacity is zero
func (c Channel) LocalRatio() (float64, bool) {
	if c.Capacity <= 0 {
		return 0, false
	}
	return float64(c.LocalBalance) / float64(c.Capacity), true
}

// DisplayName returns the alias, or a truncated pubkey when no alias is known
func (c Channel) DisplayName() string {
	if c.RemoteAlias == "" || c.RemoteAlias == UnknownAlias {
		return lnd.ShortPubkey(c.RemotePubkey)
	}
	return c.RemoteAlias
}
