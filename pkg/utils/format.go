package utils

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/dustin/go-humanize"
)

// FormatSats formats satoshi amounts with thousands separators, e.g. "1,000,000 sats"
func FormatSats(amount btcutil.Amount) string {
	return humanize.Comma(int64(amount)) + " sats"
}

// FormatSatsWithBTC appends the BTC value for amounts of at least 0.01 BTC
func FormatSatsWithBTC(amount btcutil.Amount) string {
	if amount >= 1000000 {
		return fmt.Sprintf("%s (%s)", FormatSats(amount), amount.Format(btcutil.AmountBTC))
	}
	return FormatSats(amount)
}

// FormatSatsCompact formats satoshi amounts in a compact way for tables
func FormatSatsCompact(amount btcutil.Amount) string {
	sats := int64(amount)
	if sats >= 100000000 {
		// Show in BTC for amounts >= 1 BTC
		return fmt.Sprintf("%.3f BTC", amount.ToBTC())
	} else if sats >= 1000000 {
		// Show in millions for amounts >= 1M sats
		return fmt.Sprintf("%.1fM", float64(sats)/1000000)
	} else if sats >= 1000 {
		// Show in thousands for amounts >= 1K sats
		return fmt.Sprintf("%.0fK", float64(sats)/1000)
	}
	return fmt.Sprintf("%d", sats)
}

// FormatPercent formats a percentage with one decimal place
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
