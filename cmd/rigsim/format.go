package main

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// formatBTC renders an amount with thousands separators and enough decimals
// to show per-tick earnings.
func formatBTC(v float64) string {
	return humanize.CommafWithDigits(v, 6) + " BTC"
}

func formatDays(d float64) string {
	if math.IsInf(d, 1) {
		return "never"
	}
	return fmt.Sprintf("%s days", humanize.CommafWithDigits(d, 1))
}
