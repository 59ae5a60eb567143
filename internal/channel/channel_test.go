package channel

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
)

const fundingTxid = "a6e4b8b0cd1d8e5b6c2f7f3a2c8e4d5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d"

func TestFromRaw(t *testing.T) {
	raw := lnd.Channel{
		ChanID:        "842015023514206209",
		ChannelPoint:  fundingTxid + ":1",
		RemotePubkey:  "02abc",
		Capacity:      "1000000",
		LocalBalance:  "500000",
		RemoteBalance: "496530",
		Active:        true,
	}

	ch, err := FromRaw(raw)
	require.NoError(t, err)

	assert.Equal(t, btcutil.Amount(1000000), ch.Capacity)
	assert.Equal(t, btcutil.Amount(500000), ch.LocalBalance)
	assert.Equal(t, btcutil.Amount(496530), ch.RemoteBalance)
	assert.Equal(t, fundingTxid+":1", ch.ChannelPoint)
	assert.True(t, ch.Active)
	assert.Empty(t, ch.RemoteAlias)
}

func TestFromRawAmounts(t *testing.T) {
	tests := []struct {
		name     string
		capacity string
		local    string
		wantErr  bool
	}{
		{"empty local counts as zero", "1000", "", false},
		{"not a number", "abc", "0", true},
		{"negative", "1000", "-5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRaw(lnd.Channel{RemotePubkey: "02abc", Capacity: tt.capacity, LocalBalance: tt.local})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromRawKeepsUnparseableChannelPoint(t *testing.T) {
	ch, err := FromRaw(lnd.Channel{RemotePubkey: "02abc", Capacity: "1", ChannelPoint: "not-an-outpoint"})
	require.NoError(t, err)
	assert.Equal(t, "not-an-outpoint", ch.ChannelPoint)
}

func TestFromRawList(t *testing.T) {
	channels, err := FromRawList(nil)
	require.NoError(t, err)
	assert.NotNil(t, channels)
	assert.Empty(t, channels)

	_, err = FromRawList([]lnd.Channel{{Capacity: "1"}, {Capacity: "x"}})
	assert.Error(t, err)
}

func TestLocalRatio(t *testing.T) {
	ratio, ok := Channel{Capacity: 1000000, LocalBalance: 250000}.LocalRatio()
	assert.True(t, ok)
	assert.InDelta(t, 0.25, ratio, 1e-9)

	_, ok = Channel{Capacity: 0, LocalBalance: 0}.LocalRatio()
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	pubkey := "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

	assert.Equal(t, "ACINQ", Channel{RemotePubkey: pubkey, RemoteAlias: "ACINQ"}.DisplayName())
	assert.Equal(t, "0279be667ef9...", Channel{RemotePubkey: pubkey, RemoteAlias: UnknownAlias}.DisplayName())
	assert.Equal(t, "0279be667ef9...", Channel{RemotePubkey: pubkey}.DisplayName())
}
