package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
	"github.com/brewgator/lightning-channel-assistant/pkg/testutils"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestEnrichDeduplicatesLookups(t *testing.T) {
	src := &testutils.FakeSource{
		Aliases: map[string]string{"pkA": "ACINQ", "pkB": "WalletOfSatoshi"},
	}
	channels := []channel.Channel{
		testutils.Channel("pkA", 1000000, 500000, 500000, true),
		testutils.Channel("pkB", 2000000, 1000000, 1000000, true),
		testutils.Channel("pkA", 3000000, 1500000, 1500000, false),
	}

	enriched := New(src, WithLogger(discard)).Enrich(context.Background(), channels)

	require.Len(t, enriched, 3)
	assert.Equal(t, 2, src.AliasLookups())
	assert.Equal(t, 1, src.AliasLookupsFor("pkA"))
	assert.Equal(t, 1, src.AliasLookupsFor("pkB"))

	assert.Equal(t, "ACINQ", enriched[0].RemoteAlias)
	assert.Equal(t, "WalletOfSatoshi", enriched[1].RemoteAlias)
	assert.Equal(t, "ACINQ", enriched[2].RemoteAlias)
}

func TestEnrichIsolatesLookupFailures(t *testing.T) {
	src := &testutils.FakeSource{
		Aliases:   map[string]string{"pkA": "ACINQ"},
		AliasErrs: map[string]error{"pkB": errors.New("unable to find node")},
	}
	channels := []channel.Channel{
		testutils.Channel("pkA", 1000000, 500000, 500000, true),
		testutils.Channel("pkB", 1000000, 500000, 500000, true),
	}

	enriched := New(src, WithLogger(discard)).Enrich(context.Background(), channels)

	require.Len(t, enriched, 2)
	assert.Equal(t, "ACINQ", enriched[0].RemoteAlias)
	assert.Equal(t, channel.UnknownAlias, enriched[1].RemoteAlias)
}

func TestEnrichEmptyAliasIsUnknown(t *testing.T) {
	src := &testutils.FakeSource{}
	enriched := New(src, WithLogger(discard)).Enrich(context.Background(), []channel.Channel{
		testutils.Channel("pkA", 1000000, 500000, 500000, true),
	})

	require.Len(t, enriched, 1)
	assert.Equal(t, channel.UnknownAlias, enriched[0].RemoteAlias)
}

func TestEnrichEmptyInput(t *testing.T) {
	src := &testutils.FakeSource{}
	e := New(src, WithLogger(discard))

	for _, input := range [][]channel.Channel{nil, {}} {
		got := e.Enrich(context.Background(), input)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Equal(t, 0, src.AliasLookups())
}

func TestEnrichBatchFailureReturnsOriginal(t *testing.T) {
	src := &testutils.FakeSource{
		Aliases:    map[string]string{"pkA": "ACINQ"},
		AliasPanic: map[string]bool{"pkB": true},
	}
	channels := []channel.Channel{
		testutils.Channel("pkA", 1000000, 500000, 500000, true),
		testutils.Channel("pkB", 1000000, 500000, 500000, true),
	}

	var enriched []channel.Channel
	require.NotPanics(t, func() {
		enriched = New(src, WithLogger(discard)).Enrich(context.Background(), channels)
	})

	assert.Equal(t, channels, enriched)
	for _, ch := range enriched {
		assert.Empty(t, ch.RemoteAlias)
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	src := &testutils.FakeSource{Aliases: map[string]string{"pkA": "ACINQ"}}
	channels := []channel.Channel{testutils.Channel("pkA", 1000000, 500000, 500000, true)}

	enriched := New(src, WithLogger(discard)).Enrich(context.Background(), channels)

	assert.Equal(t, "ACINQ", enriched[0].RemoteAlias)
	assert.Empty(t, channels[0].RemoteAlias)
}

// barrierSource only answers once every expected lookup is in flight, so it
// resolves aliases only when lookups run concurrently.
type barrierSource struct {
	wg sync.WaitGroup
}

func (b *barrierSource) LookupNodeAlias(ctx context.Context, pubkey string) (lnd.NodeInfo, error) {
	b.wg.Done()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return lnd.NodeInfo{Alias: "alias-" + pubkey}, nil
	case <-time.After(2 * time.Second):
		return lnd.NodeInfo{}, errors.New("lookups were not concurrent")
	}
}

func TestEnrichRunsLookupsConcurrently(t *testing.T) {
	pubkeys := []string{"pk1", "pk2", "pk3", "pk4"}
	src := &barrierSource{}
	src.wg.Add(len(pubkeys))

	channels := make([]channel.Channel, 0, len(pubkeys))
	for _, pk := range pubkeys {
		channels = append(channels, testutils.Channel(pk, 1000000, 500000, 500000, true))
	}

	enriched := New(src, WithConcurrency(0), WithLogger(discard)).Enrich(context.Background(), channels)

	for i, pk := range pubkeys {
		assert.Equal(t, "alias-"+pk, enriched[i].RemoteAlias)
	}
}

func TestDistinctPubkeysKeepsFirstSeenOrder(t *testing.T) {
	channels := []channel.Channel{
		{RemotePubkey: "b"}, {RemotePubkey: "a"}, {RemotePubkey: "b"}, {RemotePubkey: "c"},
	}
	assert.Equal(t, []string{"b", "a", "c"}, distinctPubkeys(channels))
}
