package sim

import "math"

// CrossFloorCost is the sentinel returned for a (user, AP) pair on different
// floors: orders of magnitude above any legitimate cost, so the pairing is
// hard-rejected without being excluded from enumeration. The flow graph
// builder never materializes such an edge; the sentinel exists so direct
// cost queries stay total.
const CrossFloorCost = 1e9

// costPrecision is the fixed decimal precision costs are rounded to, for
// determinism across runs.
const costPrecision = 3

// CostModel scores a (user, AP) pair; lower is better. Stateless apart from
// its configuration.
type CostModel struct {
	Weights Weights

	// RSSIThreshold is the hysteresis threshold below which the sticky
	// penalty applies.
	RSSIThreshold float64

	Capacity CapacityModel
}

// NewCostModel builds a cost model from engine configuration.
func NewCostModel(cfg Config) *CostModel {
	return &CostModel{
		Weights:       cfg.Weights,
		RSSIThreshold: cfg.RSSIThreshold,
		Capacity:      CapacityModel{Alpha: cfg.Alpha},
	}
}

// Cost combines distance, estimated signal quality, airtime demand,
// handoff stickiness, AP interference and load pressure into one scalar,
// rounded to a fixed precision. Cross-floor pairs get CrossFloorCost.
func (m *CostModel) Cost(u *User, ap *AccessPoint) float64 {
	if u.Floor != ap.Floor {
		return CrossFloorCost
	}

	dist := Distance(u.X, u.Y, ap.X, ap.Y)
	est := EstimateRSSI(dist, PathLossExponent(ap.Band))

	sticky := 0.0
	if est < m.RSSIThreshold {
		sticky = 1
	}

	pressure := loadPressure(ap.Load, m.Capacity.Dynamic(ap))

	w := m.Weights
	total := w.Distance*dist +
		w.Signal*signalPenalty(est) +
		w.Airtime*u.AirtimeDemand +
		w.Sticky*sticky +
		w.Interference*ap.InterferenceScore +
		w.Pressure*pressure

	return roundTo(total, costPrecision)
}

// signalPenalty maps an RSSI estimate in [-95, -40] to a small non-negative
// penalty: 0 at -40 dBm, 5.5 at -95 dBm.
func signalPenalty(rssi float64) float64 {
	return math.Max(0, (-rssi-40)/10)
}

// loadPressure is the AP's utilization ratio clamped to [0, 1.5].
func loadPressure(load, capacity float64) float64 {
	if capacity <= 0 {
		return 1.5
	}
	return math.Max(0, math.Min(1.5, load/capacity))
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
