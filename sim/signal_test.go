package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateRSSI_ReferenceDistance(t *testing.T) {
	// GIVEN a user 100 units from an AP with path-loss exponent 22
	got := EstimateRSSI(100, 22)

	// THEN rssi = -30 - 22*log10(100) = -74, inside [-95, -40], not clamped
	assert.InDelta(t, -74.0, got, 1e-9)
}

func TestEstimateRSSI_ClampsToRange(t *testing.T) {
	// very close: raw value -30 clamps up to the ceiling
	if got := EstimateRSSI(0.5, 22); got != RSSICeil {
		t.Errorf("EstimateRSSI at 0.5 units: got %f, want %d", got, RSSICeil)
	}
	// very far: clamps down to the floor
	if got := EstimateRSSI(1e9, 22); got != RSSIFloor {
		t.Errorf("EstimateRSSI at 1e9 units: got %f, want %d", got, RSSIFloor)
	}
}

func TestEstimateRSSI_MonotonicInDistance(t *testing.T) {
	prev := float64(RSSICeil)
	for d := 1.0; d < 2000; d += 10 {
		got := EstimateRSSI(d, 22)
		if got > prev {
			t.Fatalf("EstimateRSSI increased at distance %f: %f > %f", d, got, prev)
		}
		prev = got
	}
}

func TestClampRSSI_NonFiniteCollapsesToFloor(t *testing.T) {
	assert.Equal(t, float64(RSSIFloor), ClampRSSI(math.NaN()))
	assert.Equal(t, float64(RSSIFloor), ClampRSSI(math.Inf(1)))
	assert.Equal(t, float64(RSSIFloor), ClampRSSI(math.Inf(-1)))
}

func TestBandTables(t *testing.T) {
	// coverage shrinks and path loss grows as frequency rises
	assert.Greater(t, BandCoverage(Band24), BandCoverage(Band5))
	assert.Greater(t, BandCoverage(Band5), BandCoverage(Band6))
	assert.Less(t, PathLossExponent(Band24), PathLossExponent(Band5))
	assert.Less(t, PathLossExponent(Band5), PathLossExponent(Band6))

	// unknown bands fall back to the 5 GHz values
	assert.Equal(t, BandCoverage(Band5), BandCoverage("60"))
	assert.Equal(t, PathLossExponent(Band5), PathLossExponent("60"))

	assert.True(t, ValidBand(Band24))
	assert.False(t, ValidBand("60"))
}
