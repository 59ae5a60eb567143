package testutils

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
)

// CreateTestDBPath creates a temporary SQLite database file path for testing
func CreateTestDBPath(t *testing.T) string {
	t.Helper()

	// Create temporary directory
	tmpDir := t.TempDir()
	return filepath.Join(tmpDir, "test.db")
}

// AssertNoError is a helper to check for no error
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError checks that err is non-nil and mentions expectedMsg
func AssertError(t *testing.T, err error, expectedMsg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing '%s', got nil", expectedMsg)
	}
	if !strings.Contains(err.Error(), expectedMsg) {
		t.Fatalf("Expected error containing '%s', got '%v'", expectedMsg, err)
	}
}

// AssertEqual checks if two values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// Channel builds an enriched-model channel for analytics and report tests
func Channel(pubkey string, capacity, local, remote int64, active bool) channel.Channel {
	return channel.Channel{
		RemotePubkey:  pubkey,
		Capacity:      btcutil.Amount(capacity),
		LocalBalance:  btcutil.Amount(local),
		RemoteBalance: btcutil.Amount(remote),
		Active:        active,
	}
}

// RawChannel builds an lncli listchannels record
func RawChannel(pubkey string, capacity, local, remote int64, active bool) lnd.Channel {
	return lnd.Channel{
		RemotePubkey:  pubkey,
		Capacity:      strconv.FormatInt(capacity, 10),
		LocalBalance:  strconv.FormatInt(local, 10),
		RemoteBalance: strconv.FormatInt(remote, 10),
		Active:        active,
	}
}

// FakeSource is an in-memory channel data source that counts calls
type FakeSource struct {
	Channels   []lnd.Channel
	ListErr    error
	Aliases    map[string]string
	AliasErrs  map[string]error
	AliasPanic map[string]bool

	mu           sync.Mutex
	listCalls    int
	aliasLookups map[string]int
}

// ListChannels returns the configured snapshot or error
func (f *FakeSource) ListChannels(ctx context.Context) ([]lnd.Channel, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Channels, nil
}

// LookupNodeAlias returns the configured alias, error or panic for pubkey
func (f *FakeSource) LookupNodeAlias(ctx context.Context, pubkey string) (lnd.NodeInfo, error) {
	f.mu.Lock()
	if f.aliasLookups == nil {
		f.aliasLookups = make(map[string]int)
	}
	f.aliasLookups[pubkey]++
	f.mu.Unlock()

	if f.AliasPanic[pubkey] {
		panic("alias lookup exploded for " + pubkey)
	}
	if err := f.AliasErrs[pubkey]; err != nil {
		return lnd.NodeInfo{}, err
	}
	return lnd.NodeInfo{PubKey: pubkey, Alias: f.Aliases[pubkey]}, nil
}

// ListCalls returns how many times ListChannels was called
func (f *FakeSource) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// AliasLookups returns the total number of alias lookups
func (f *FakeSource) AliasLookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.aliasLookups {
		total += n
	}
	return total
}

// AliasLookupsFor returns the number of lookups issued for pubkey
func (f *FakeSource) AliasLookupsFor(pubkey string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aliasLookups[pubkey]
}
