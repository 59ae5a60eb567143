// Package analytics computes aggregate statistics and health classification
// over an enriched channel set. Everything here is pure and synchronous.
package analytics

import (
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/brewgator/lightning-channel-assistant/internal/channel"
)

// ErrInvalidCriteria is returned by HealthCriteria.Validate
var ErrInvalidCriteria = errors.New("invalid health criteria")

// HealthCriteria bounds the acceptable local balance ratio of an active channel
type HealthCriteria struct {
	MinLocalRatio float64 `json:"min_local_ratio" mapstructure:"min_local_ratio"`
	MaxLocalRatio float64 `json:"max_local_ratio" mapstructure:"max_local_ratio"`
}

// DefaultHealthCriteria returns the 10%/90% band
func DefaultHealthCriteria() HealthCriteria {
	return HealthCriteria{MinLocalRatio: 0.1, MaxLocalRatio: 0.9}
}

// Validate checks both ratios are in [0, 1] and ordered
func (hc HealthCriteria) Validate() error {
	if hc.MinLocalRatio < 0 || hc.MinLocalRatio > 1 {
		return fmt.Errorf("%w: min_local_ratio %v outside [0, 1]", ErrInvalidCriteria, hc.MinLocalRatio)
	}
	if hc.MaxLocalRatio < 0 || hc.MaxLocalRatio > 1 {
		return fmt.Errorf("%w: max_local_ratio %v outside [0, 1]", ErrInvalidCriteria, hc.MaxLocalRatio)
	}
	if hc.MinLocalRatio > hc.MaxLocalRatio {
		return fmt.Errorf("%w: min_local_ratio %v greater than max_local_ratio %v",
			ErrInvalidCriteria, hc.MinLocalRatio, hc.MaxLocalRatio)
	}
	return nil
}

// Summary aggregates a channel set
type Summary struct {
	TotalCapacity         btcutil.Amount   `json:"total_capacity"`
	TotalLocalBalance     btcutil.Amount   `json:"total_local_balance"`
	TotalRemoteBalance    btcutil.Amount   `json:"total_remote_balance"`
	ActiveChannels        int              `json:"active_channels"`
	InactiveChannels      int              `json:"inactive_channels"`
	AverageCapacity       btcutil.Amount   `json:"average_capacity"`
	MostImbalancedChannel *channel.Channel `json:"most_imbalanced_channel,omitempty"`
	HealthyChannels       int              `json:"healthy_channels"`
	UnhealthyChannels     int              `json:"unhealthy_channels"`
}

// TotalChannels is the size of the summarized set
func (s Summary) TotalChannels() int {
	return s.ActiveChannels + s.InactiveChannels
}

// LocalPercent is the share of local balance in local+remote, 0 when both are zero
func (s Summary) LocalPercent() float64 {
	total := s.TotalLocalBalance + s.TotalRemoteBalance
	if total <= 0 {
		return 0
	}
	return float64(s.TotalLocalBalance) / float64(total) * 100
}

// RemotePercent is the share of remote balance in local+remote, 0 when both are zero
func (s Summary) RemotePercent() float64 {
	total := s.TotalLocalBalance + s.TotalRemoteBalance
	if total <= 0 {
		return 0
	}
	return float64(s.TotalRemoteBalance) / float64(total) * 100
}

// Imbalance is how far the local ratio sits from an even split, in [0, 0.5].
// Channels without capacity report false.
func Imbalance(ch channel.Channel) (float64, bool) {
	ratio, ok := ch.LocalRatio()
	if !ok {
		return 0, false
	}
	return math.Abs(0.5 - ratio), true
}

// IsHealthy reports whether ch is active and, when it has capacity, inside the criteria band
func IsHealthy(ch channel.Channel, criteria HealthCriteria) bool {
	if !ch.Active {
		return false
	}
	ratio, ok := ch.LocalRatio()
	if !ok {
		return true
	}
	return ratio >= criteria.MinLocalRatio && ratio <= criteria.MaxLocalRatio
}

// Summarize computes totals, counts and health over channels
func Summarize(channels []channel.Channel, criteria HealthCriteria) Summary {
	var s Summary
	if len(channels) == 0 {
		return s
	}

	maxImbalance := -1.0
	for _, ch := range channels {
		s.TotalCapacity += ch.Capacity
		s.TotalLocalBalance += ch.LocalBalance
		s.TotalRemoteBalance += ch.RemoteBalance

		if ch.Active {
			s.ActiveChannels++
		} else {
			s.InactiveChannels++
		}

		if IsHealthy(ch, criteria) {
			s.HealthyChannels++
		} else {
			s.UnhealthyChannels++
		}

		// strict comparison keeps the first channel on ties
		if imb, ok := Imbalance(ch); ok && imb > maxImbalance {
			maxImbalance = imb
			most := ch
			s.MostImbalancedChannel = &most
		}
	}

	s.AverageCapacity = s.TotalCapacity / btcutil.Amount(len(channels))
	return s
}
