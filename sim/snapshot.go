// Sanitized, immutable state snapshots for external consumers. A snapshot
// shares no memory with live entities and every numeric field is guaranteed
// finite, so it can be serialized or read concurrently with the next tick.

package sim

import "math"

// Alarm is a raised observability condition, e.g. persistent overload.
// Alarms inform observers; they never drive control decisions.
type Alarm struct {
	APID     string  `json:"ap_id"`
	Tick     uint64  `json:"tick"`
	Ticks    int     `json:"consecutive_ticks"`
	Load     float64 `json:"load"`
	Capacity float64 `json:"capacity"`
}

// Snapshot is the per-tick state view handed to transports and tests.
type Snapshot struct {
	Tick        uint64            `json:"tick"`
	Users       []User            `json:"clients"`
	APs         []AccessPoint     `json:"aps"`
	Assignments map[string]string `json:"assignments"`
	Alarms      []Alarm           `json:"alarms,omitempty"`
	Metrics     Metrics           `json:"metrics"`
}

// sanitizeFloat replaces non-finite values with a fallback before export.
func sanitizeFloat(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// sanitizedUser copies a user with finite numeric fields.
func sanitizedUser(u *User) User {
	out := *u
	out.X = sanitizeFloat(u.X, 0)
	out.Y = sanitizeFloat(u.Y, 0)
	out.VX = sanitizeFloat(u.VX, 0)
	out.VY = sanitizeFloat(u.VY, 0)
	out.AirtimeDemand = sanitizeFloat(u.AirtimeDemand, 1)
	if out.RSSI < RSSIFloor || out.RSSI > RSSICeil {
		out.RSSI = RSSIFloor
	}
	return out
}

// sanitizedAP copies an AP with finite numeric fields and a detached
// connected-set slice.
func sanitizedAP(ap *AccessPoint) AccessPoint {
	out := *ap
	out.X = sanitizeFloat(ap.X, 0)
	out.Y = sanitizeFloat(ap.Y, 0)
	out.Load = sanitizeFloat(ap.Load, 0)
	out.BaseCapacity = sanitizeFloat(ap.BaseCapacity, 1)
	out.CoverageRadius = sanitizeFloat(ap.CoverageRadius, 0)
	out.InterferenceScore = sanitizeFloat(ap.InterferenceScore, 0)
	out.Connected = append([]string(nil), ap.Connected...)
	return out
}
