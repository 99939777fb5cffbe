package analytics

import (
	"math"
	"strconv"
)

// The dashboard consumes rates as integer-percentage strings ("0", "50",
// "100"). Every division in this file is guarded: a zero denominator yields
// "0" rather than NaN or a panic, since a funnel with no visitors has no
// meaningful rate.

// ConversionRate returns numerator/denominator as a rounded percentage
// string, "0" when the denominator is zero.
func ConversionRate(numerator, denominator int64) string {
	if denominator == 0 {
		return "0"
	}
	rate := float64(numerator) / float64(denominator) * 100
	return strconv.Itoa(int(math.Round(rate)))
}

// GrowthRate compares the current period against the previous one:
//   - both zero: "0" (nothing happened, nothing grew)
//   - previous zero, current positive: "100" (growth from nothing is capped)
//   - otherwise: round((curr-prev)/prev*100), negative when shrinking
func GrowthRate(previous, current int64) string {
	if previous == 0 {
		if current == 0 {
			return "0"
		}
		return "100"
	}
	rate := float64(current-previous) / float64(previous) * 100
	return strconv.Itoa(int(math.Round(rate)))
}
