// Package enrich resolves remote node aliases for a channel snapshot.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/brewgator/lightning-channel-assistant/internal/channel"
	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
)

// DefaultConcurrency bounds in-flight alias lookups
const DefaultConcurrency = 8

// AliasSource looks up the advertised node info of a peer
type AliasSource interface {
	LookupNodeAlias(ctx context.Context, pubkey string) (lnd.NodeInfo, error)
}

// Enricher attaches remote aliases to channels
type Enricher struct {
	source AliasSource
	limit  int
	logger *slog.Logger
}

// Option configures an Enricher
type Option func(*Enricher)

// WithConcurrency sets the maximum number of concurrent lookups. n <= 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		e.limit = n
	}
}

// WithLogger sets the logger
func WithLogger(lg *slog.Logger) Option {
	return func(e *Enricher) {
		if lg != nil {
			e.logger = lg
		}
	}
}

// New creates an Enricher backed by src
func New(src AliasSource, opts ...Option) *Enricher {
	e := &Enricher{
		source: src,
		limit:  DefaultConcurrency,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a copy of channels with RemoteAlias set. One lookup is issued
// per distinct pubkey. If the lookup batch as a whole fails, the channels are
// returned unenriched.
func (e *Enricher) Enrich(ctx context.Context, channels []channel.Channel) []channel.Channel {
	if len(channels) == 0 {
		return []channel.Channel{}
	}

	pubkeys := distinctPubkeys(channels)
	aliases, err := e.resolve(ctx, pubkeys)
	if err != nil {
		e.logger.ErrorContext(ctx, "alias enrichment failed, returning channels without aliases",
			"error", err, "peers", len(pubkeys))
		return channels
	}

	enriched := make([]channel.Channel, len(channels))
	for i, ch := range channels {
		ch.RemoteAlias = aliases[ch.RemotePubkey]
		enriched[i] = ch
	}
	return enriched
}

// distinctPubkeys returns remote pubkeys in first-seen order
func distinctPubkeys(channels []channel.Channel) []string {
	seen := make(map[string]struct{}, len(channels))
	pubkeys := make([]string, 0, len(channels))
	for _, ch := range channels {
		if _, ok := seen[ch.RemotePubkey]; ok {
			continue
		}
		seen[ch.RemotePubkey] = struct{}{}
		pubkeys = append(pubkeys, ch.RemotePubkey)
	}
	return pubkeys
}

// resolve looks up every pubkey concurrently. Individual lookup failures are
// settled into UnknownAlias; only a failure of the batch itself is returned.
func (e *Enricher) resolve(ctx context.Context, pubkeys []string) (map[string]string, error) {
	results := make([]string, len(pubkeys))

	var g errgroup.Group
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, pubkey := range pubkeys {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("alias lookup for %s panicked: %v", pubkey, r)
				}
			}()
			results[i] = e.lookup(ctx, pubkey)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	aliases := make(map[string]string, len(pubkeys))
	for i, pubkey := range pubkeys {
		aliases[pubkey] = results[i]
	}
	return aliases, nil
}

func (e *Enricher) lookup(ctx context.Context, pubkey string) string {
	info, err := e.source.LookupNodeAlias(ctx, pubkey)
	if err != nil {
		e.logger.DebugContext(ctx, "alias lookup failed", "pubkey", pubkey, "error", err)
		return channel.UnknownAlias
	}
	if info.Alias == "" {
		return channel.UnknownAlias
	}
	return info.Alias
}
