// Log-distance path-loss RSSI model, shared by the cost model, the coverage
// recompute and the greedy rebalancer so signal strength is never estimated
// two different ways.

package sim

import "math"

// RSSI bounds in dBm. RSSIFloor doubles as the sentinel value for a user
// with no AP in range.
const (
	RSSIFloor = -95
	RSSICeil  = -40
)

// Band identifiers. Coverage radius and path-loss exponent are band-derived.
const (
	Band24 = "2.4"
	Band5  = "5"
	Band6  = "6"
)

// PathLossExponent returns the band's path-loss exponent (scaled by 10, as
// the log-distance model here uses rssi = -30 - exp*log10(d)). Unknown bands
// fall back to the 5 GHz value.
func PathLossExponent(band string) float64 {
	switch band {
	case Band24:
		return 20
	case Band5:
		return 22
	case Band6:
		return 24
	default:
		return 22
	}
}

// BandCoverage returns the coverage radius in distance units for a band.
// Unknown bands fall back to the 5 GHz value.
func BandCoverage(band string) float64 {
	switch band {
	case Band24:
		return 600
	case Band5:
		return 450
	case Band6:
		return 250
	default:
		return 450
	}
}

// BandChannels returns the usable channels for a band, in a fixed order so
// channel assignment is deterministic.
func BandChannels(band string) []int {
	switch band {
	case Band24:
		return []int{1, 6, 11}
	case Band5:
		return []int{36, 40, 44, 48}
	case Band6:
		return []int{5, 21, 37, 53, 69}
	default:
		return []int{36, 40, 44, 48}
	}
}

// ValidBand reports whether band names a supported frequency band.
func ValidBand(band string) bool {
	return band == Band24 || band == Band5 || band == Band6
}

// EstimateRSSI computes the log-distance path-loss estimate in dBm for a
// given distance and exponent, clamped to [RSSIFloor, RSSICeil]. Distances
// below one unit are treated as one unit so the estimate stays finite.
func EstimateRSSI(distance, exponent float64) float64 {
	rssi := -30 - exponent*math.Log10(math.Max(distance, 1))
	return ClampRSSI(rssi)
}

// ClampRSSI clamps a signal value into the legal RSSI range. Non-finite
// input collapses to RSSIFloor rather than propagating.
func ClampRSSI(rssi float64) float64 {
	if math.IsNaN(rssi) || math.IsInf(rssi, 0) {
		return RSSIFloor
	}
	return math.Max(RSSIFloor, math.Min(RSSICeil, rssi))
}
