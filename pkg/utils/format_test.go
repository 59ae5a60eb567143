package utils

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
)

func TestFormatSats(t *testing.T) {
	tests := []struct {
		amount btcutil.Amount
		want   string
	}{
		{0, "0 sats"},
		{999, "999 sats"},
		{1000000, "1,000,000 sats"},
		{123456789, "123,456,789 sats"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatSats(tt.amount); got != tt.want {
				t.Errorf("FormatSats(%d) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestFormatSatsWithBTC(t *testing.T) {
	if got := FormatSatsWithBTC(500000); got != "500,000 sats" {
		t.Errorf("got %q", got)
	}
	got := FormatSatsWithBTC(1000000)
	if !strings.HasPrefix(got, "1,000,000 sats (0.01") || !strings.HasSuffix(got, " BTC)") {
		t.Errorf("got %q", got)
	}
}

func TestFormatSatsCompact(t *testing.T) {
	tests := []struct {
		amount btcutil.Amount
		want   string
	}{
		{500, "500"},
		{25000, "25K"},
		{1500000, "1.5M"},
		{250000000, "2.500 BTC"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatSatsCompact(tt.amount); got != tt.want {
				t.Errorf("FormatSatsCompact(%d) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(49.96); got != "50.0%" {
		t.Errorf("got %q", got)
	}
}
