// Package utils provides shared utility functions.
package utils

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatUSD formats an amount as US dollars with thousands separators.
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	result := "$" + humanize.FormatFloat("#,###.##", amount)
	if negative {
		result = "-" + result
	}
	return result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatVolume formats a share volume with thousands separators.
func FormatVolume(volume int64) string {
	return humanize.Comma(volume)
}
