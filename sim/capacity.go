package sim

import "math"

// CapacityModel computes an AP's load-dependent effective capacity.
// Both the flow graph builder and the greedy rebalancer must go through the
// same model so capacity is never interpreted inconsistently between the
// optimal and heuristic paths.
type CapacityModel struct {
	// Alpha is the elasticity constant. Reference value 0.25.
	Alpha float64
}

// Dynamic returns base * (1 + Alpha*ln(1 + activeUsers)), floored at the
// AP's base capacity. It is monotonically non-decreasing in the size of the
// AP's connected set.
func (c CapacityModel) Dynamic(ap *AccessPoint) float64 {
	return c.DynamicFor(ap.BaseCapacity, len(ap.Connected))
}

// DynamicFor is Dynamic for an explicit base capacity and user count.
func (c CapacityModel) DynamicFor(base float64, activeUsers int) float64 {
	if activeUsers < 0 {
		activeUsers = 0
	}
	eff := base * (1 + c.Alpha*math.Log(1+float64(activeUsers)))
	return math.Max(eff, base)
}

// FlowCapacity converts a fractional dynamic capacity into the integer edge
// capacity used for an AP's sink edge: rounded down, never below one. The
// rounding policy is deliberate, not an incidental cast.
func FlowCapacity(dynamic float64) int {
	if math.IsNaN(dynamic) || dynamic < 1 {
		return 1
	}
	return int(math.Floor(dynamic))
}
