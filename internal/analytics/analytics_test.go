package analytics

import (
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/pkg/testutils"
)

func TestSummarizeEmpty(t *testing.T) {
	for _, input := range [][]channel.Channel{nil, {}} {
		s := Summarize(input, DefaultHealthCriteria())
		assert.Equal(t, Summary{}, s)
		assert.Nil(t, s.MostImbalancedChannel)
		assert.Equal(t, btcutil.Amount(0), s.AverageCapacity)
	}
}

func TestIsHealthy(t *testing.T) {
	criteria := DefaultHealthCriteria()

	tests := []struct {
		name string
		ch   channel.Channel
		want bool
	}{
		{"balanced active", testutils.Channel("pk1", 1000000, 500000, 500000, true), true},
		{"depleted local", testutils.Channel("pk1", 1000000, 50000, 950000, true), false},
		{"depleted remote", testutils.Channel("pk1", 1000000, 950000, 50000, true), false},
		{"balanced inactive", testutils.Channel("pk1", 1000000, 500000, 500000, false), false},
		{"exactly at lower bound", testutils.Channel("pk1", 1000000, 100000, 900000, true), true},
		{"exactly at upper bound", testutils.Channel("pk1", 1000000, 900000, 100000, true), true},
		{"zero capacity active", testutils.Channel("pk1", 0, 0, 0, true), true},
		{"zero capacity inactive", testutils.Channel("pk1", 0, 0, 0, false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHealthy(tt.ch, criteria))
		})
	}
}

func TestIsHealthyCustomCriteria(t *testing.T) {
	ch := testutils.Channel("pk1", 1000000, 200000, 800000, true)

	assert.True(t, IsHealthy(ch, DefaultHealthCriteria()))
	assert.False(t, IsHealthy(ch, HealthCriteria{MinLocalRatio: 0.3, MaxLocalRatio: 0.7}))
}

func TestSummarize(t *testing.T) {
	channels := []channel.Channel{
		testutils.Channel("pk1", 1000000, 500000, 500000, true),
		testutils.Channel("pk2", 2000000, 100000, 1900000, true),
		testutils.Channel("pk3", 500000, 250000, 250000, false),
		testutils.Channel("pk4", 0, 0, 0, true),
	}

	s := Summarize(channels, DefaultHealthCriteria())

	assert.Equal(t, btcutil.Amount(3500000), s.TotalCapacity)
	assert.Equal(t, btcutil.Amount(850000), s.TotalLocalBalance)
	assert.Equal(t, btcutil.Amount(2650000), s.TotalRemoteBalance)
	assert.Equal(t, 3, s.ActiveChannels)
	assert.Equal(t, 1, s.InactiveChannels)
	assert.Equal(t, btcutil.Amount(875000), s.AverageCapacity)
	assert.Equal(t, 2, s.HealthyChannels)
	assert.Equal(t, 2, s.UnhealthyChannels)

	require.NotNil(t, s.MostImbalancedChannel)
	assert.Equal(t, "pk2", s.MostImbalancedChannel.RemotePubkey)
}

func TestSummarizeMostImbalancedTieKeepsFirst(t *testing.T) {
	channels := []channel.Channel{
		testutils.Channel("first", 1000000, 100000, 900000, true),
		testutils.Channel("second", 1000000, 900000, 100000, true),
	}

	s := Summarize(channels, DefaultHealthCriteria())
	require.NotNil(t, s.MostImbalancedChannel)
	assert.Equal(t, "first", s.MostImbalancedChannel.RemotePubkey)
}

func TestSummarizeAllZeroCapacity(t *testing.T) {
	channels := []channel.Channel{
		testutils.Channel("pk1", 0, 0, 0, true),
		testutils.Channel("pk2", 0, 0, 0, false),
	}

	s := Summarize(channels, DefaultHealthCriteria())
	assert.Nil(t, s.MostImbalancedChannel)
	assert.Equal(t, 1, s.HealthyChannels)
	assert.Equal(t, 1, s.UnhealthyChannels)
}

func TestSummarizeDoesNotAliasInput(t *testing.T) {
	channels := []channel.Channel{testutils.Channel("pk1", 1000000, 0, 1000000, true)}

	s := Summarize(channels, DefaultHealthCriteria())
	require.NotNil(t, s.MostImbalancedChannel)

	channels[0].RemotePubkey = "mutated"
	assert.Equal(t, "pk1", s.MostImbalancedChannel.RemotePubkey)
}

func TestSummarizeHealthCountsAlwaysAddUp(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	criteria := []HealthCriteria{
		DefaultHealthCriteria(),
		{MinLocalRatio: 0, MaxLocalRatio: 1},
		{MinLocalRatio: 0.5, MaxLocalRatio: 0.5},
	}

	for i := 0; i < 200; i++ {
		n := rng.Intn(20)
		channels := make([]channel.Channel, n)
		for j := range channels {
			capacity := int64(rng.Intn(5)) * 250000
			local := int64(0)
			if capacity > 0 {
				local = rng.Int63n(capacity + 1)
			}
			channels[j] = testutils.Channel("pk", capacity, local, capacity-local, rng.Intn(3) > 0)
		}

		for _, c := range criteria {
			s := Summarize(channels, c)
			assert.Equal(t, n, s.HealthyChannels+s.UnhealthyChannels)
			assert.Equal(t, n, s.TotalChannels())
		}
	}
}

func TestSummaryPercentages(t *testing.T) {
	s := Summary{TotalLocalBalance: 250000, TotalRemoteBalance: 750000}
	assert.InDelta(t, 25.0, s.LocalPercent(), 1e-9)
	assert.InDelta(t, 75.0, s.RemotePercent(), 1e-9)

	assert.Equal(t, 0.0, Summary{}.LocalPercent())
	assert.Equal(t, 0.0, Summary{}.RemotePercent())
}

func TestHealthCriteriaValidate(t *testing.T) {
	tests := []struct {
		name     string
		criteria HealthCriteria
		wantErr  bool
	}{
		{"defaults", DefaultHealthCriteria(), false},
		{"full range", HealthCriteria{0, 1}, false},
		{"equal bounds", HealthCriteria{0.5, 0.5}, false},
		{"min above max", HealthCriteria{0.8, 0.2}, true},
		{"negative min", HealthCriteria{-0.1, 0.9}, true},
		{"max above one", HealthCriteria{0.1, 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criteria.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCriteria)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
