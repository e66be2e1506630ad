// Core entity records for the WLAN simulation: mobile users and fixed
// access points. Both are plain structs with a fixed field set; every
// field is initialized at creation and mutated only inside the engine's
// step pipeline.

package sim

import "math"

// Unassigned is the assignment value for a user with no access point.
const Unassigned = ""

// User is a mobile wireless client. Position and velocity are in floor-local
// coordinates. Floor is assigned at creation and never changes implicitly.
type User struct {
	ID    string `json:"id"`
	Floor int    `json:"floor"`
	Room  string `json:"room"`

	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`

	// RSSI is the signal quality toward the strongest in-range AP on the
	// user's floor, in dBm, clamped to [RSSIFloor, RSSICeil].
	RSSI int `json:"rssi"`

	// AirtimeDemand is the resource units this user consumes from its AP's
	// shared capacity while connected. Always positive.
	AirtimeDemand float64 `json:"airtime_demand"`

	// AssignedAP is the authoritative assignment. Empty means unassigned.
	AssignedAP string `json:"assigned_ap"`

	// graceLeft counts remaining grace ticks during which a user that lost
	// coverage keeps its last assignment (hysteresis policy, 0 = disabled).
	graceLeft int
}

// AccessPoint is a fixed wireless access point. BaseCapacity, position,
// floor, band, channel and interference score are static; Load and
// Connected are derived views rebuilt every tick from user assignments.
type AccessPoint struct {
	ID    string `json:"id"`
	Floor int    `json:"floor"`
	Room  string `json:"room"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	Band    string `json:"band"`
	Channel int    `json:"channel"`

	// BaseCapacity is the static airtime capacity in resource units.
	// The load-dependent ceiling is computed by CapacityModel.
	BaseCapacity float64 `json:"airtime_capacity"`

	// MaxClients caps how many users scenario seeding will place on this AP.
	MaxClients int `json:"max_clients"`

	// Load is the smoothed airtime load, rebuilt each tick from assignments.
	Load float64 `json:"load"`

	CoverageRadius    float64 `json:"coverage_radius"`
	InterferenceScore float64 `json:"interference_score"`

	// Connected is a materialized view of the users whose AssignedAP equals
	// this AP's ID. Rebuilt every tick, never the source of truth.
	Connected []string `json:"connected_clients"`
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
